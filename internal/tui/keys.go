package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Enter    key.Binding
	Back     key.Binding

	// Actions
	Quit          key.Binding
	Help          key.Binding
	Search        key.Binding
	Filter        key.Binding
	Sort          key.Binding
	Refresh       key.Binding
	ToggleWatched key.Binding
	ToggleLiked   key.Binding
	Rate          key.Binding
	Lists         key.Binding
	Dismiss       key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown", "right"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup", "left"),
			key.WithHelp("p/←", "prev page"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open / expand"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filters"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleWatched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "toggle watched"),
		),
		ToggleLiked: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle liked"),
		),
		Rate: key.NewBinding(
			key.WithKeys("*", "R"),
			key.WithHelp("*", "rate"),
		),
		Lists: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "lists"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
	}
}

// ShortHelp returns the footer bindings
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleWatched, k.ToggleLiked, k.Rate, k.Lists, k.Filter, k.Search, k.Help, k.Quit}
}

// FullHelp returns every binding grouped by column
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.NextPage, k.PrevPage, k.Enter, k.Back},
		{k.ToggleWatched, k.ToggleLiked, k.Rate, k.Lists, k.Dismiss},
		{k.Search, k.Filter, k.Sort, k.Refresh, k.Help, k.Quit},
	}
}

// Keys is the package-level key map
var Keys = DefaultKeyMap()
