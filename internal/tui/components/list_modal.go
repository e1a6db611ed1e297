package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/tui/styles"
)

// ListChange is a requested membership change for the modal's item
type ListChange struct {
	ListID int
	Key    domain.MediaKey
	Add    bool // true = add to list, false = remove
}

// ListModal manages the list membership of one row. Every toggle is applied
// immediately by the caller; the modal re-reads membership on each render.
type ListModal struct {
	visible  bool
	item     domain.MediaItem
	lists    []domain.ListMeta
	isMember func(listID int) bool
	loading  bool
	cursor   int
}

// NewListModal creates a new list modal
func NewListModal() ListModal {
	return ListModal{}
}

// Show displays the modal for item
func (m *ListModal) Show(item domain.MediaItem, lists []domain.ListMeta, isMember func(listID int) bool) {
	m.visible = true
	m.item = item
	m.lists = lists
	m.isMember = isMember
	m.loading = false
	m.cursor = 0
}

// ShowLoading displays the modal while the membership cache loads
func (m *ListModal) ShowLoading(item domain.MediaItem) {
	m.visible = true
	m.item = item
	m.lists = nil
	m.loading = true
	m.cursor = 0
}

// SetLists refreshes the displayed lists (counts move with membership)
func (m *ListModal) SetLists(lists []domain.ListMeta, isMember func(listID int) bool) {
	m.lists = lists
	m.isMember = isMember
	m.loading = false
	if m.cursor >= len(lists) {
		m.cursor = max(0, len(lists)-1)
	}
}

// Hide dismisses the modal
func (m *ListModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m *ListModal) IsVisible() bool {
	return m.visible
}

// Item returns the row being managed
func (m *ListModal) Item() domain.MediaItem {
	return m.item
}

// HandleKeyMsg processes a key, returns (handled, change, refresh).
// change is non-nil when the user toggled a list.
func (m *ListModal) HandleKeyMsg(msg tea.KeyMsg) (handled bool, change *ListChange, refresh bool) {
	if !m.visible {
		return false, nil, false
	}

	switch {
	case key.Matches(msg, ListModalKeys.Escape):
		m.Hide()
	case key.Matches(msg, ListModalKeys.Down):
		if m.cursor < len(m.lists)-1 {
			m.cursor++
		}
	case key.Matches(msg, ListModalKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, ListModalKeys.Refresh):
		m.loading = true
		return true, nil, true
	case key.Matches(msg, ListModalKeys.Toggle):
		if m.loading || len(m.lists) == 0 {
			return true, nil, false
		}
		l := m.lists[m.cursor]
		return true, &ListChange{
			ListID: l.ID,
			Key:    m.item.Key(),
			Add:    !m.member(l.ID),
		}, false
	}
	return true, nil, false
}

func (m *ListModal) member(id int) bool {
	return m.isMember != nil && m.isMember(id)
}

// View renders the list modal
func (m *ListModal) View() string {
	if !m.visible {
		return ""
	}

	const width = 40

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render(styles.Truncate("Lists: "+m.item.Title, width)))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(styles.DimStyle.Render("Loading lists..."))
	case len(m.lists) == 0:
		b.WriteString(styles.DimStyle.Render("No lists"))
	default:
		for i, l := range m.lists {
			check := "[ ]"
			if m.member(l.ID) {
				check = "[" + styles.SuccessStyle.Render("x") + "]"
			}
			label := styles.Pad(styles.Truncate(l.Name, width-12), width-12)
			count := styles.DimStyle.Render(fmt.Sprintf("%4d", l.ItemCount))
			line := check + " " + label + " " + count
			if i == m.cursor {
				line = styles.SelectedItemStyle.Render("▸ ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Space: Toggle  R: Refresh  Esc: Done"))

	return styles.ModalStyle.Width(width + 6).Render(b.String())
}
