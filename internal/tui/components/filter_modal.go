package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/filters"
	"github.com/mmcdole/servies/internal/tui/styles"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages offered by the filter panel besides any already selected
var CommonLanguages = []string{"en", "es", "fr", "de", "it", "ja", "ko", "zh", "pt-BR", "hi", "sv", "da"}

// Statuses offered by the filter panel
var SeriesStatuses = []string{"Returning Series", "In Production", "Planned", "Ended", "Canceled"}

// FilterAction is what the user asked the owning view to do
type FilterAction int

const (
	FilterNone FilterAction = iota
	FilterSubmit
	FilterReset
	FilterClose
)

type rowKind int

const (
	rowType rowKind = iota
	rowGenre
	rowLanguage
	rowStatus
)

var sectionTitles = map[rowKind]string{
	rowType:     "Type",
	rowGenre:    "Genres",
	rowLanguage: "Languages",
	rowStatus:   "Status",
}

type filterRow struct {
	kind    rowKind
	value   string // genre id, language tag or status
	label   string
	matched []int
}

// FilterModal edits a filter draft. Nothing is committed until the owner
// handles FilterSubmit.
type FilterModal struct {
	visible bool
	draft   *filters.Draft
	genres  []domain.Genre
	query   textinput.Model
	rows    []filterRow
	cursor  int
	err     string
	height  int
}

// NewFilterModal creates a new filter modal
func NewFilterModal() FilterModal {
	ti := textinput.New()
	ti.Placeholder = "Type to narrow..."
	ti.Prompt = "/ "
	ti.CharLimit = 40
	ti.PromptStyle = styles.AccentStyle
	ti.PlaceholderStyle = styles.DimStyle

	return FilterModal{query: ti, height: 20}
}

// Show opens the modal over draft
func (m *FilterModal) Show(draft *filters.Draft) {
	m.visible = true
	m.draft = draft
	m.err = ""
	m.cursor = 0
	m.query.SetValue("")
	m.query.Focus()
	m.rebuild()
}

// Hide dismisses the modal
func (m *FilterModal) Hide() {
	m.visible = false
	m.query.Blur()
}

// IsVisible returns whether the modal is shown
func (m *FilterModal) IsVisible() bool {
	return m.visible
}

// SetGenres replaces the genre options
func (m *FilterModal) SetGenres(genres []domain.Genre) {
	m.genres = genres
	m.rebuild()
}

// SetHeight bounds the number of visible rows
func (m *FilterModal) SetHeight(h int) {
	m.height = max(6, h)
}

// HandleKeyMsg processes a key, returns (handled, action, cmd)
func (m *FilterModal) HandleKeyMsg(msg tea.KeyMsg) (bool, FilterAction, tea.Cmd) {
	if !m.visible {
		return false, FilterNone, nil
	}

	switch {
	case key.Matches(msg, ModalKeys.Escape):
		if m.query.Value() != "" {
			m.query.SetValue("")
			m.rebuild()
			return true, FilterNone, nil
		}
		m.Hide()
		return true, FilterClose, nil
	case key.Matches(msg, ModalKeys.Enter):
		m.Hide()
		return true, FilterSubmit, nil
	case key.Matches(msg, ModalKeys.Reset):
		m.Hide()
		return true, FilterReset, nil
	case key.Matches(msg, ModalKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return true, FilterNone, nil
	case key.Matches(msg, ModalKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return true, FilterNone, nil
	case key.Matches(msg, ModalKeys.Toggle):
		m.toggle()
		return true, FilterNone, nil
	}

	var cmd tea.Cmd
	before := m.query.Value()
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.cursor = 0
		m.rebuild()
	}
	return true, FilterNone, cmd
}

func (m *FilterModal) toggle() {
	if m.draft == nil || m.cursor >= len(m.rows) {
		return
	}
	m.err = ""
	row := m.rows[m.cursor]
	switch row.kind {
	case rowType:
		m.draft.SetType(nextType(m.draft.State().Type))
		m.rows[m.cursor].label = typeLabel(m.draft.State().Type)
	case rowGenre:
		m.draft.CycleGenre(row.value)
	case rowLanguage:
		if err := m.draft.ToggleLanguage(row.value); err != nil {
			m.err = err.Error()
		}
	case rowStatus:
		m.draft.ToggleStatus(row.value)
	}
}

// rebuild recomputes the visible rows, narrowing by the typeahead query
func (m *FilterModal) rebuild() {
	var all []filterRow
	all = append(all, filterRow{kind: rowType, label: m.typeRowLabel()})
	for _, g := range m.genres {
		id := g.ID
		if id == "" {
			id = g.Name
		}
		all = append(all, filterRow{kind: rowGenre, value: id, label: g.Name})
	}
	for _, code := range m.languageOptions() {
		all = append(all, filterRow{kind: rowLanguage, value: code, label: LanguageName(code)})
	}
	for _, s := range SeriesStatuses {
		all = append(all, filterRow{kind: rowStatus, value: s, label: s})
	}

	q := strings.TrimSpace(m.query.Value())
	if q == "" {
		m.rows = all
	} else {
		labels := make([]string, len(all))
		for i, r := range all {
			labels[i] = r.label
		}
		matches := fuzzy.Find(q, labels)
		m.rows = make([]filterRow, 0, len(matches))
		for _, match := range matches {
			r := all[match.Index]
			r.matched = match.MatchedIndexes
			m.rows = append(m.rows, r)
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

func (m *FilterModal) typeRowLabel() string {
	if m.draft == nil {
		return typeLabel("")
	}
	return typeLabel(m.draft.State().Type)
}

// languageOptions is the common set plus anything already selected
func (m *FilterModal) languageOptions() []string {
	out := append([]string(nil), CommonLanguages...)
	if m.draft == nil {
		return out
	}
	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c] = true
	}
	for _, c := range m.draft.State().Languages.Sorted() {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// LanguageName returns the English display name of a BCP 47 tag
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

func nextType(t domain.ChildType) domain.ChildType {
	switch t {
	case "":
		return domain.ChildTypeMovie
	case domain.ChildTypeMovie:
		return domain.ChildTypeSeries
	default:
		return ""
	}
}

func typeLabel(t domain.ChildType) string {
	switch t {
	case domain.ChildTypeMovie:
		return "Movies"
	case domain.ChildTypeSeries:
		return "Series"
	default:
		return "Movies & Series"
	}
}

func (m *FilterModal) mark(r filterRow) string {
	if m.draft == nil {
		return "   "
	}
	switch r.kind {
	case rowGenre:
		switch m.draft.GenreState(r.value) {
		case filters.GenreIncluded:
			return "[" + styles.SuccessStyle.Render(styles.IncludedChar) + "]"
		case filters.GenreExcluded:
			return "[" + styles.ErrorStyle.Render(styles.ExcludedChar) + "]"
		}
		return "[ ]"
	case rowLanguage:
		if m.draft.State().Languages.Has(r.value) {
			return "[" + styles.SuccessStyle.Render("x") + "]"
		}
		return "[ ]"
	case rowStatus:
		if m.draft.State().Statuses.Has(r.value) {
			return "[" + styles.SuccessStyle.Render("x") + "]"
		}
		return "[ ]"
	}
	return " ⇄ "
}

// View renders the filter modal
func (m *FilterModal) View() string {
	if !m.visible {
		return ""
	}

	const width = 44

	var lines []string
	lines = append(lines, m.query.View(), "")

	// Window the rows around the cursor
	visible := m.height - 8
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(len(m.rows), start+visible)

	var section rowKind = -1
	for i := start; i < end; i++ {
		r := m.rows[i]
		if r.kind != section {
			section = r.kind
			lines = append(lines, styles.DimStyle.Render(sectionTitles[section]))
		}
		base := styles.NormalItemStyle
		prefix := "  "
		if i == m.cursor {
			base = styles.SelectedItemStyle
			prefix = "▸ "
		}
		label := styles.Highlight(styles.Truncate(r.label, width-8), r.matched, base)
		lines = append(lines, prefix+m.mark(r)+" "+label)
	}
	if len(m.rows) == 0 {
		lines = append(lines, styles.DimStyle.Render("No matches"))
	}

	lines = append(lines, "")
	if m.err != "" {
		lines = append(lines, styles.ErrorStyle.Render(m.err))
	}
	dirty := ""
	if m.draft != nil && m.draft.Dirty() {
		dirty = styles.AccentStyle.Render(" •")
	}
	lines = append(lines, styles.DimStyle.Render("Space: Cycle  Enter: Apply  C-r: Reset")+dirty)

	title := styles.ModalTitleStyle.Render("Filters")
	return styles.ModalStyle.Width(width + 6).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}
