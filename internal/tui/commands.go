package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/lists"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/mmcdole/servies/internal/search"
)

// Command factories for async operations

// LoadPageCmd fetches one catalog page with the active filters
func LoadPageCmd(svc *catalog.Service, filter domain.FilterState, page, seq int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		p, err := svc.FetchPage(ctx, filter, page)
		return PageLoadedMsg{Seq: seq, Page: p, Err: err}
	}
}

// LoadSeriesCmd fetches a series' seasons
func LoadSeriesCmd(svc *catalog.Service, key domain.MediaKey, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		detail, show, err := svc.FetchSeasons(ctx, key.ExternalID)
		return SeriesLoadedMsg{Key: key, Detail: detail, Show: show, Err: err}
	}
}

// LoadEpisodesCmd fetches the episodes of one season
func LoadEpisodesCmd(svc *catalog.Service, seriesID, seasonNo int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		eps, err := svc.FetchEpisodes(ctx, seriesID, seasonNo)
		return EpisodesLoadedMsg{SeriesID: seriesID, SeasonNo: seasonNo, Episodes: eps, Err: err}
	}
}

// LoadGenresCmd fetches the genre options for a type
func LoadGenresCmd(svc *catalog.Service, t domain.ChildType, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		genres, err := svc.FetchGenres(ctx, t)
		return GenresLoadedMsg{Genres: genres, Err: err}
	}
}

// LoadListsCmd loads (or with refresh, refetches) list membership
func LoadListsCmd(m *lists.Membership, refresh bool, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if refresh {
			return ListsLoadedMsg{Err: m.Refresh(ctx)}
		}
		return ListsLoadedMsg{Err: m.Load(ctx)}
	}
}

// SearchCmd runs a search for query
func SearchCmd(svc *search.Service, query string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		results, err := svc.Search(ctx, query)
		return SearchResultsMsg{Query: query, Results: results, Err: err}
	}
}

// SearchTickCmd schedules the debounced search for token
func SearchTickCmd(token int, query string, wait time.Duration) tea.Cmd {
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return searchTickMsg{token: token, query: query}
	})
}

// MutateCmd runs an optimistic action's remote call off the event loop.
// The local change has already been applied; Update settles the result.
func MutateCmd(a *optimistic.Action, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return ActionSettledMsg{Action: a, Err: a.Mutate(ctx)}
	}
}

// ClearNotificationCmd expires notification seq after ttl
func ClearNotificationCmd(seq int, ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return ClearNotificationMsg{Seq: seq}
	})
}
