package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/tui/styles"
)

var sortLabels = map[string]string{
	"title":       "Title",
	"releaseDate": "Release Date",
	"rating":      "Rating",
	"popularity":  "Popularity",
}

// SortLabel returns the display name for a sort field
func SortLabel(field string) string {
	if l, ok := sortLabels[field]; ok {
		return l
	}
	return field
}

// DefaultDirection returns the default sort direction for a field
func DefaultDirection(field string) string {
	if field == "title" {
		return domain.SortAsc // A-Z
	}
	return domain.SortDesc // newest / best first
}

// SortSelection represents the user's sort choice
type SortSelection struct {
	Field     string
	Direction string
}

// SortModal is a small popup for choosing sort order
type SortModal struct {
	visible     bool
	options     []string
	cursor      int
	activeField string
	activeDir   string
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{options: domain.SortFields}
}

// Show displays the modal positioned on the current sort field
func (m *SortModal) Show(activeField, activeDir string) {
	m.visible = true
	m.activeField = activeField
	m.activeDir = activeDir
	m.cursor = 0
	for i, opt := range m.options {
		if opt == activeField {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *SortModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, selection).
// If selection is non-nil, the user confirmed a choice.
func (m *SortModal) HandleKey(key string) (handled bool, selection *SortSelection) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		chosen := m.options[m.cursor]
		dir := DefaultDirection(chosen)
		if chosen == m.activeField {
			// Same field flips direction
			dir = domain.SortAsc
			if m.activeDir == domain.SortAsc {
				dir = domain.SortDesc
			}
		}
		m.visible = false
		return true, &SortSelection{Field: chosen, Direction: dir}
	case "esc", "s":
		m.visible = false
	}

	return true, nil // consume all keys when visible
}

// View renders the sort modal
func (m SortModal) View() string {
	if !m.visible || len(m.options) == 0 {
		return ""
	}

	lines := make([]string, 0, len(m.options))
	for i, opt := range m.options {
		active := opt == m.activeField

		prefix := "  "
		suffix := ""
		if active {
			prefix = "✓ "
			suffix = " ↓"
			if m.activeDir == domain.SortAsc {
				suffix = " ↑"
			}
		}
		text := styles.Pad(prefix+SortLabel(opt)+suffix, 20)

		switch {
		case i == m.cursor:
			lines = append(lines, styles.SelectedItemStyle.Render(text))
		case active:
			lines = append(lines, styles.ActiveItemStyle.Render(text))
		default:
			lines = append(lines, styles.NormalItemStyle.Render(text))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Amber).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render("Sort by") + "\n" + strings.Join(lines, "\n"))
}
