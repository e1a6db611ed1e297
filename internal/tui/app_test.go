package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/filters"
	"github.com/mmcdole/servies/internal/lists"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/search"
	"github.com/mmcdole/servies/internal/store"
)

// fakeServer implements every repository the model talks to
type fakeServer struct {
	mu      sync.Mutex
	err     error
	page    domain.Page
	series  domain.SeriesDetail
	calls   []string
	members map[int][]domain.MediaKey
}

func (f *fakeServer) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeServer) ListServies(ctx context.Context, filter domain.FilterState, page int) (*domain.Page, error) {
	p := f.page
	p.Page = page
	return &p, nil
}

func (f *fakeServer) GetItem(ctx context.Context, key domain.MediaKey) (*domain.MediaItem, error) {
	return nil, domain.ErrItemNotFound
}

func (f *fakeServer) GetSeries(ctx context.Context, id int) (*domain.SeriesDetail, error) {
	s := f.series
	return &s, nil
}

func (f *fakeServer) GetEpisodes(ctx context.Context, id, seasonNo int) ([]domain.Episode, error) {
	return nil, nil
}

func (f *fakeServer) GetGenres(ctx context.Context, t domain.ChildType) ([]domain.Genre, error) {
	return nil, nil
}

func (f *fakeServer) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	return nil, nil
}

func (f *fakeServer) ToggleWatched(ctx context.Context, key domain.MediaKey) error {
	return f.record("watched " + key.String())
}

func (f *fakeServer) SetLiked(ctx context.Context, key domain.MediaKey, liked bool) error {
	return f.record("liked " + key.String())
}

func (f *fakeServer) SetRating(ctx context.Context, key domain.MediaKey, rating float64) error {
	return f.record("rating " + key.String())
}

func (f *fakeServer) ToggleSeason(ctx context.Context, seriesID, seasonNo int) error {
	return f.record("season")
}

func (f *fakeServer) ToggleEpisode(ctx context.Context, seriesID, seasonNo, episodeNo int) error {
	return f.record("episode")
}

func (f *fakeServer) GetLists(ctx context.Context) ([]domain.ListMeta, error) {
	return []domain.ListMeta{{ID: 1, Name: "Later"}}, nil
}

func (f *fakeServer) GetListMembers(ctx context.Context, listID int) ([]domain.MediaKey, error) {
	return f.members[listID], nil
}

func (f *fakeServer) GetListItems(ctx context.Context, listID int) ([]domain.MediaItem, error) {
	return nil, nil
}

func (f *fakeServer) AddToList(ctx context.Context, listID int, key domain.MediaKey) error {
	return f.record("add")
}

func (f *fakeServer) RemoveFromList(ctx context.Context, listID int, key domain.MediaKey) error {
	return f.record("remove")
}

func intPtr(v int) *int { return &v }

func newTestModel(t *testing.T, srv *fakeServer) Model {
	t.Helper()
	kv := store.NewMemoryStore()
	m := NewModel(Options{
		Catalog:   catalog.NewService(srv, srv, nil),
		Mutations: srv,
		Lists:     lists.New(srv, kv, notify.Discard, nil),
		Filters:   filters.NewStore(kv, nil),
		Search:    search.NewService(srv, nil),
		Banner:    notify.NewBanner(time.Minute),
		Timeout:   time.Second,
	})
	t.Cleanup(m.Close)
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

// settle runs cmd and feeds the action result back into the model
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		if s, ok := msg.(ActionSettledMsg); ok {
			m, _ = send(t, m, s)
			return m
		}
	}
	t.Fatal("no ActionSettledMsg produced")
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func loaded(t *testing.T, srv *fakeServer) Model {
	m := newTestModel(t, srv)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = send(t, m, PageLoadedMsg{Seq: 0, Page: &srv.page})
	return m
}

func TestToggleWatchedAppliesBeforeServer(t *testing.T) {
	srv := &fakeServer{page: domain.Page{
		Items:      []domain.MediaItem{{ChildType: domain.ChildTypeMovie, ExternalID: 1, Title: "Heat"}},
		TotalPages: 1,
	}}
	m := loaded(t, srv)

	m, cmd := press(t, m, "w")
	if !m.items.IsWatched("movie-1") {
		t.Fatal("row should be watched before the request completes")
	}
	if len(srv.calls) != 0 {
		t.Fatal("request must run off the update loop")
	}

	m = settle(t, m, cmd)
	if !m.items.IsWatched("movie-1") {
		t.Error("confirmed toggle should stay applied")
	}
	if n, ok := m.banner.Current(); !ok || n.Message != "Marked Heat as watched" {
		t.Errorf("banner = %+v", n)
	}
}

func TestToggleWatchedFailureRollsBack(t *testing.T) {
	srv := &fakeServer{
		err: errors.New("boom"),
		page: domain.Page{
			Items: []domain.MediaItem{{ChildType: domain.ChildTypeMovie, ExternalID: 1, Title: "Heat", Completed: true}},
		},
	}
	m := loaded(t, srv)

	m, cmd := press(t, m, "w")
	if m.items.IsWatched("movie-1") {
		t.Fatal("optimistic unwatch expected")
	}
	m = settle(t, m, cmd)
	if !m.items.IsWatched("movie-1") {
		t.Error("failure should restore the watched state")
	}
	if n, ok := m.banner.Current(); !ok || !n.IsError() {
		t.Errorf("want failure banner, got %+v", n)
	}
}

func TestStalePageIgnored(t *testing.T) {
	srv := &fakeServer{page: domain.Page{Items: []domain.MediaItem{{ChildType: domain.ChildTypeMovie, ExternalID: 1}}}}
	m := loaded(t, srv)

	m, _ = send(t, m, PageLoadedMsg{Seq: 42, Page: &domain.Page{}})
	if m.items.Len() != 1 {
		t.Fatal("a superseded response must not replace the page")
	}
}

func TestPageErrorShowsPlaceholder(t *testing.T) {
	m := newTestModel(t, &fakeServer{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = send(t, m, PageLoadedMsg{Seq: 0, Err: domain.ErrServerOffline})

	if m.loadErr == nil || m.loading {
		t.Fatal("fetch failure should stop loading and keep the error")
	}
	if m.items.Len() != 0 {
		t.Error("placeholder expected")
	}
}

func TestSeasonToggleRollsUpToCatalogRow(t *testing.T) {
	srv := &fakeServer{
		page: domain.Page{Items: []domain.MediaItem{{
			ChildType: domain.ChildTypeSeries, ExternalID: 9, Title: "Dark",
			EpisodesWatched: intPtr(0), TotalEpisodes: intPtr(10),
		}}},
		series: domain.SeriesDetail{Seasons: []domain.Season{
			{SeasonNo: 1, EpisodeCount: 10, TotalRuntime: 600},
		}},
	}
	m := loaded(t, srv)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != ScreenSeries {
		t.Fatal("enter on a series should open it")
	}
	for _, msg := range collect(cmd) {
		m, _ = send(t, m, msg)
	}
	if m.series.tracker == nil {
		t.Fatal("series should be loaded")
	}

	m, cmd = press(t, m, "w")
	season, _ := m.series.show().Season(1)
	if !season.Watched || season.EpisodesWatched != 10 {
		t.Fatalf("season = %+v, want fully watched", season)
	}
	item, _ := m.items.Item("series-9")
	if item.Progress() != "10/10" || !item.Completed {
		t.Fatalf("catalog row = %q completed=%v", item.Progress(), item.Completed)
	}

	m = settle(t, m, cmd)
	if srv.calls[0] != "season" {
		t.Errorf("calls = %v", srv.calls)
	}
}

func TestLeavingSeriesDropsPendingToggle(t *testing.T) {
	srv := &fakeServer{
		err:    errors.New("boom"),
		page:   domain.Page{Items: []domain.MediaItem{{ChildType: domain.ChildTypeSeries, ExternalID: 9, Title: "Dark"}}},
		series: domain.SeriesDetail{Seasons: []domain.Season{{SeasonNo: 1, EpisodeCount: 2}}},
	}
	m := loaded(t, srv)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range collect(cmd) {
		m, _ = send(t, m, msg)
	}
	m, cmd = press(t, m, "w")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m = settle(t, m, cmd)
	if _, ok := m.banner.Current(); ok {
		t.Error("a closed screen must not report its late result")
	}
}

func TestFilterResetRequeries(t *testing.T) {
	srv := &fakeServer{}
	m := loaded(t, srv)
	seq := m.loadSeq

	m, _ = press(t, m, "f")
	if !m.filterModal.IsVisible() {
		t.Fatal("filter modal should open")
	}
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.loadSeq != seq+1 || !m.loading {
		t.Fatal("reset should reload the first page")
	}
	if !m.filter.IsDefault() {
		t.Errorf("filter = %+v, want defaults", m.filter)
	}
	if cmd == nil {
		t.Fatal("expected a load command")
	}
}

func TestListToggleIsOptimistic(t *testing.T) {
	srv := &fakeServer{
		page:    domain.Page{Items: []domain.MediaItem{{ChildType: domain.ChildTypeMovie, ExternalID: 1, Title: "Heat"}}},
		members: map[int][]domain.MediaKey{},
	}
	m := loaded(t, srv)

	m, cmd := press(t, m, "a")
	for _, msg := range collect(cmd) {
		m, _ = send(t, m, msg)
	}
	if !m.lists.Loaded() {
		t.Fatal("lists should load on demand")
	}

	m, cmd = press(t, m, " ")
	key := domain.MediaKey{ChildType: domain.ChildTypeMovie, ExternalID: 1}
	if !m.lists.Contains(1, key) {
		t.Fatal("membership should change before the server answers")
	}
	m = settle(t, m, cmd)
	if !m.lists.Contains(1, key) {
		t.Error("confirmed add should stay")
	}
}
