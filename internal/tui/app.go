package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/collection"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/filters"
	"github.com/mmcdole/servies/internal/lists"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/mmcdole/servies/internal/search"
	"github.com/mmcdole/servies/internal/tui/components"
	"github.com/mmcdole/servies/internal/tui/styles"
)

// Screen identifies the active view
type Screen int

const (
	ScreenCatalog Screen = iota
	ScreenSeries
)

// Options wires the model to its services
type Options struct {
	Catalog   *catalog.Service
	Mutations domain.MutationRepository
	Lists     *lists.Membership
	Filters   *filters.Store
	Search    *search.Service
	Banner    *notify.Banner
	Logger    *slog.Logger

	Timeout        time.Duration // Per request
	SearchDebounce time.Duration
	SearchCooldown time.Duration
}

// querySink receives the filters the draft asks the view to query with
type querySink struct {
	next *domain.FilterState
}

// Model is the main application model
type Model struct {
	catalog     *catalog.Service
	mutations   domain.MutationRepository
	lists       *lists.Membership
	filterStore *filters.Store
	search      *search.Service
	banner      *notify.Banner
	logger      *slog.Logger
	timeout     time.Duration

	// Catalog screen
	screen  Screen
	items   *collection.Collection
	filter  domain.FilterState // What the visible page was queried with
	draft   *filters.Draft
	sink    *querySink
	pager   paginator.Model
	cursor  int
	offset  int
	loading bool
	loadErr error
	loadSeq int

	// Search
	searchInput textinput.Model
	searching   bool   // Input focused
	searchQuery string // Results shown for this query
	debouncer   *search.Debouncer

	// Series screen
	series *seriesView

	// Modals
	filterModal components.FilterModal
	sortModal   components.SortModal
	listModal   components.ListModal
	ratingModal components.RatingModal

	help      help.Model
	bannerSeq int
	width     int
	height    int
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = search.DefaultDelay
	}
	if opts.SearchCooldown <= 0 {
		opts.SearchCooldown = search.DefaultCooldown
	}

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.PerPage = 1
	pager.SetTotalPages(1)

	ti := textinput.New()
	ti.Placeholder = "Search servies..."
	ti.Prompt = "/ "
	ti.CharLimit = 80
	ti.PromptStyle = styles.AccentStyle
	ti.PlaceholderStyle = styles.DimStyle

	sink := &querySink{}
	draft := filters.NewDraft(opts.Filters, func(f domain.FilterState) {
		f = f.Clone()
		sink.next = &f
	})

	return Model{
		catalog:     opts.Catalog,
		mutations:   opts.Mutations,
		lists:       opts.Lists,
		filterStore: opts.Filters,
		search:      opts.Search,
		banner:      opts.Banner,
		logger:      logger,
		timeout:     opts.Timeout,
		items:       collection.New(opts.Mutations, opts.Banner, logger),
		filter:      opts.Filters.Read(),
		draft:       draft,
		sink:        sink,
		pager:       pager,
		loading:     true,
		searchInput: ti,
		debouncer:   search.NewDebouncer(opts.SearchDebounce, opts.SearchCooldown),
		filterModal: components.NewFilterModal(),
		sortModal:   components.NewSortModal(),
		listModal:   components.NewListModal(),
		ratingModal: components.NewRatingModal(),
		help:        help.New(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadPageCmd(m.catalog, m.filter, 1, m.loadSeq, m.timeout),
		LoadGenresCmd(m.catalog, m.filter.Type, m.timeout),
	)
}

// Close releases the model's subscriptions; pending actions settle silently.
func (m Model) Close() {
	m.draft.Close()
	m.items.Close()
	if m.series != nil {
		m.series.close()
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	expiry := m.scheduleBannerExpiry()
	return m, tea.Batch(cmd, expiry)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.filterModal.SetHeight(msg.Height - 4)
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case PageLoadedMsg:
		if msg.Seq != m.loadSeq {
			return m, nil // Superseded
		}
		m.loading = false
		if msg.Err != nil {
			// The view shows an empty placeholder; nothing is retried
			m.logger.Error("failed to load page", "error", msg.Err)
			m.loadErr = msg.Err
			m.items.Replace(nil)
			return m, nil
		}
		m.loadErr = nil
		m.items.Replace(msg.Page.Items)
		m.search.IndexItems(msg.Page.Items)
		m.pager.SetTotalPages(max(1, msg.Page.TotalPages))
		m.pager.Page = max(0, msg.Page.Page-1)
		m.clampCursor()
		return m, nil

	case SearchResultsMsg:
		if msg.Query != m.searchQuery {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.loadErr = msg.Err
			m.items.Replace(nil)
			return m, nil
		}
		m.loadErr = nil
		m.items.Replace(msg.Results)
		m.cursor, m.offset = 0, 0
		return m, nil

	case searchTickMsg:
		if !m.debouncer.Fire(msg.token) {
			return m, nil
		}
		m.searchQuery = msg.query
		if msg.query == "" {
			return m, m.reload()
		}
		m.loadSeq++ // Any page still loading is superseded
		m.loading = true
		return m, SearchCmd(m.search, msg.query, m.timeout)

	case GenresLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("failed to load genres", "error", msg.Err)
			return m, nil
		}
		m.filterModal.SetGenres(msg.Genres)
		return m, nil

	case ListsLoadedMsg:
		if msg.Err != nil {
			m.banner.Notify(notify.KindFailure, "Failed to load lists !!")
			m.listModal.Hide()
			return m, nil
		}
		m.refreshListModal()
		return m, nil

	case SeriesLoadedMsg:
		if m.series == nil || m.series.key != msg.Key {
			return m, nil // Left the screen before the load finished
		}
		if msg.Err != nil {
			m.series.loading = false
			m.series.err = msg.Err
			return m, nil
		}
		m.series.bind(msg.Detail, msg.Show, m.items, m.mutations, m.banner, m.logger)
		return m, nil

	case EpisodesLoadedMsg:
		if m.series != nil {
			m.series.episodesLoaded(msg)
		}
		return m, nil

	case ActionSettledMsg:
		msg.Action.Settle(msg.Err)
		m.refreshListModal()
		return m, nil

	case ClearNotificationMsg:
		m.banner.Expire(msg.Seq)
		return m, nil
	}

	return m, nil
}

// begin starts the remote half of an optimistic action. Begin errors never
// change state; they are reported on the banner.
func (m Model) begin(a *optimistic.Action, err error) tea.Cmd {
	if err != nil {
		switch {
		case errors.Is(err, optimistic.ErrInFlight):
			m.banner.Notify(notify.KindInfo, "Still saving, try again in a moment")
		case errors.Is(err, lists.ErrNoChange):
		default:
			m.logger.Warn("action rejected", "error", err)
			m.banner.Notify(notify.KindFailure, err.Error())
		}
		return nil
	}
	return MutateCmd(a, m.timeout)
}

// reload refetches the current page with the active filters
func (m *Model) reload() tea.Cmd {
	return m.loadPage(m.pager.Page + 1)
}

func (m *Model) loadPage(page int) tea.Cmd {
	m.loadSeq++
	m.loading = true
	m.searchQuery = ""
	return LoadPageCmd(m.catalog, m.filter, page, m.loadSeq, m.timeout)
}

// applyQuery picks up filters the draft submitted or reset
func (m *Model) applyQuery() tea.Cmd {
	if m.sink.next == nil {
		return nil
	}
	typeChanged := m.sink.next.Type != m.filter.Type
	m.filter = *m.sink.next
	m.sink.next = nil
	m.cursor, m.offset = 0, 0

	cmds := []tea.Cmd{m.loadPage(1)}
	if typeChanged {
		cmds = append(cmds, LoadGenresCmd(m.catalog, m.filter.Type, m.timeout))
	}
	return tea.Batch(cmds...)
}

// scheduleBannerExpiry arms the expiry tick for a newly posted notification
func (m *Model) scheduleBannerExpiry() tea.Cmd {
	seq := m.banner.Seq()
	if seq == m.bannerSeq {
		return nil
	}
	m.bannerSeq = seq
	return ClearNotificationCmd(seq, m.banner.TTL())
}

// memberOf reports the lists item belongs to, read live from the cache
func (m Model) memberOf(item domain.MediaItem) func(listID int) bool {
	key := item.Key()
	membership := m.lists
	return func(id int) bool {
		return membership.Contains(id, key)
	}
}

// refreshListModal redraws the open list modal after membership moved
func (m *Model) refreshListModal() {
	if m.listModal.IsVisible() {
		m.listModal.SetLists(m.lists.Lists(), m.memberOf(m.listModal.Item()))
	}
}

// selected returns the row under the cursor
func (m Model) selected() (domain.MediaItem, bool) {
	items := m.items.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.MediaItem{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := m.items.Len()
	m.cursor = max(0, min(m.cursor, n-1))
	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

// listHeight is the number of rows available to the table
func (m Model) listHeight() int {
	return max(1, m.height-6)
}
