package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/servies/internal/tui/styles"
)

// MaxRating is the top of the rating scale
const MaxRating = 10

// RatingModal prompts for a 0-10 rating of one row
type RatingModal struct {
	visible bool
	key     string
	title   string
	err     string
	input   textinput.Model
}

// NewRatingModal creates a new rating modal
func NewRatingModal() RatingModal {
	ti := textinput.New()
	ti.Placeholder = "0-10, 0 clears"
	ti.CharLimit = 4
	ti.Width = 30
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle
	ti.Validate = func(s string) error {
		if strings.Trim(s, "0123456789.") != "" {
			return fmt.Errorf("not a number")
		}
		return nil
	}

	return RatingModal{input: ti}
}

// Show displays the modal for the row key, prefilled with the current rating
func (m *RatingModal) Show(key, title string, current float64) {
	m.visible = true
	m.key = key
	m.title = title
	m.err = ""
	m.input.SetValue("")
	if current > 0 {
		m.input.SetValue(strconv.FormatFloat(current, 'f', -1, 64))
	}
	m.input.Focus()
}

// Hide dismisses the modal
func (m *RatingModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m RatingModal) IsVisible() bool {
	return m.visible
}

// Key returns the row being rated
func (m RatingModal) Key() string {
	return m.key
}

// Value parses the entered rating
func (m RatingModal) Value() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(m.input.Value()), 64)
	if err != nil {
		return 0, fmt.Errorf("enter a number")
	}
	if math.IsNaN(v) || v < 0 || v > MaxRating {
		return 0, fmt.Errorf("rating must be between 0 and %d", MaxRating)
	}
	return v, nil
}

// Update handles input events, returns (modal, cmd, submitted).
// submitted is only reported for a valid rating.
func (m RatingModal) Update(msg tea.Msg) (RatingModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if _, err := m.Value(); err != nil {
				m.err = err.Error()
				return m, nil, false
			}
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the rating modal
func (m RatingModal) View() string {
	if !m.visible {
		return ""
	}

	const modalWidth = 36

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(modalWidth).
		Background(styles.SlateDark)

	rowStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Background(styles.SlateDark)

	status := styles.DimStyle.Render("Enter: Save  Esc: Cancel")
	if m.err != "" {
		status = styles.ErrorStyle.Render(m.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(styles.Truncate("Rate "+m.title, modalWidth)),
		rowStyle.Render(""),
		rowStyle.Render(m.input.View()),
		rowStyle.Render(""),
		rowStyle.Render(status),
	)

	return styles.ModalStyle.Render(content)
}
