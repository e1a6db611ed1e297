package tui

import (
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/mmcdole/servies/internal/rollup"
)

// Message types for the TUI

// PageLoadedMsg carries one catalog page. Seq identifies the request so a
// slow response cannot overwrite a newer one.
type PageLoadedMsg struct {
	Seq  int
	Page *domain.Page
	Err  error
}

// SeriesLoadedMsg carries the seasons of a series
type SeriesLoadedMsg struct {
	Key    domain.MediaKey
	Detail *domain.SeriesDetail
	Show   *rollup.Show
	Err    error
}

// EpisodesLoadedMsg carries the episodes of one season
type EpisodesLoadedMsg struct {
	SeriesID int
	SeasonNo int
	Episodes []domain.Episode
	Err      error
}

// GenresLoadedMsg carries the genre options for the filter panel
type GenresLoadedMsg struct {
	Genres []domain.Genre
	Err    error
}

// ListsLoadedMsg signals that list membership is available
type ListsLoadedMsg struct {
	Err error
}

// SearchResultsMsg carries search results for Query
type SearchResultsMsg struct {
	Query   string
	Results []domain.MediaItem
	Err     error
}

// searchTickMsg fires when a debounced keystroke is due
type searchTickMsg struct {
	token int
	query string
}

// ActionSettledMsg carries the outcome of an optimistic action's remote call
type ActionSettledMsg struct {
	Action *optimistic.Action
	Err    error
}

// ClearNotificationMsg expires the banner notification Seq
type ClearNotificationMsg struct {
	Seq int
}
