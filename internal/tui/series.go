package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/collection"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/mmcdole/servies/internal/rollup"
)

// seriesRow is one line of the series screen: a season, or an episode of
// an expanded season when episodeNo > 0.
type seriesRow struct {
	seasonNo  int
	episodeNo int
}

// seriesView is the detail screen of one series. It owns the rollup
// tracker and closes it when the screen goes away.
type seriesView struct {
	key     domain.MediaKey
	title   string
	detail  *domain.SeriesDetail
	tracker *rollup.Tracker
	loading bool
	err     error

	cursor   int
	expanded map[int]bool
	fetching map[int]bool
	failed   map[int]error
}

func newSeriesView(item domain.MediaItem) *seriesView {
	return &seriesView{
		key:      item.Key(),
		title:    item.Title,
		loading:  true,
		expanded: make(map[int]bool),
		fetching: make(map[int]bool),
		failed:   make(map[int]error),
	}
}

// bind attaches the loaded show. Aggregate changes are reported to the
// catalog row of the series.
func (v *seriesView) bind(detail *domain.SeriesDetail, show *rollup.Show, items *collection.Collection, mutations domain.MutationRepository, banner *notify.Banner, logger *slog.Logger) {
	v.detail = detail
	v.loading = false
	rowKey := v.key.String()
	show.OnAggregateChange(func(rollup.AggregateChange) {
		agg := show.Series()
		items.SetEpisodesWatched(rowKey, agg.WatchedEpisodes, agg.TotalEpisodes)
	})
	v.tracker = rollup.NewTracker(show, mutations, banner, logger)
}

func (v *seriesView) close() {
	if v.tracker != nil {
		v.tracker.Close()
	}
}

func (v *seriesView) show() *rollup.Show {
	if v.tracker == nil {
		return nil
	}
	return v.tracker.Show()
}

// episodesLoaded attaches a season's episodes to the show
func (v *seriesView) episodesLoaded(msg EpisodesLoadedMsg) {
	show := v.show()
	if show == nil || msg.SeriesID != v.key.ExternalID {
		return
	}
	delete(v.fetching, msg.SeasonNo)
	if msg.Err != nil {
		v.failed[msg.SeasonNo] = msg.Err
		return
	}
	if err := show.SetEpisodes(msg.SeasonNo, msg.Episodes); err != nil {
		v.failed[msg.SeasonNo] = err
	}
}

// rows flattens seasons and the episodes of expanded seasons
func (v *seriesView) rows() []seriesRow {
	show := v.show()
	if show == nil {
		return nil
	}
	var rows []seriesRow
	for _, s := range show.Seasons() {
		rows = append(rows, seriesRow{seasonNo: s.SeasonNo})
		if !v.expanded[s.SeasonNo] {
			continue
		}
		eps, _ := show.Episodes(s.SeasonNo)
		for _, ep := range eps {
			rows = append(rows, seriesRow{seasonNo: s.SeasonNo, episodeNo: ep.EpisodeNo})
		}
	}
	return rows
}

func (v *seriesView) selected() (seriesRow, bool) {
	rows := v.rows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return seriesRow{}, false
	}
	return rows[v.cursor], true
}

func (v *seriesView) move(delta int) {
	n := len(v.rows())
	v.cursor = max(0, min(n-1, v.cursor+delta))
}

// expand toggles the selected season open, fetching its episodes once
func (v *seriesView) expand(svc *catalog.Service, timeout time.Duration) tea.Cmd {
	row, ok := v.selected()
	if !ok {
		return nil
	}
	no := row.seasonNo
	if row.episodeNo > 0 {
		// Collapse from an episode row back to its season
		v.expanded[no] = false
		v.cursor = v.indexOf(seriesRow{seasonNo: no})
		return nil
	}
	v.expanded[no] = !v.expanded[no]
	if !v.expanded[no] {
		return nil
	}
	if _, loaded := v.show().Episodes(no); loaded || v.fetching[no] {
		return nil
	}
	v.fetching[no] = true
	delete(v.failed, no)
	return LoadEpisodesCmd(svc, v.key.ExternalID, no, timeout)
}

// beginToggle starts the optimistic toggle of the selected season or episode
func (v *seriesView) beginToggle() (*optimistic.Action, error) {
	row, ok := v.selected()
	if !ok || v.tracker == nil {
		return nil, domain.ErrNotLoaded
	}
	if row.episodeNo > 0 {
		return v.tracker.BeginToggleEpisode(row.seasonNo, row.episodeNo)
	}
	return v.tracker.BeginToggleSeason(row.seasonNo)
}

func (v *seriesView) indexOf(r seriesRow) int {
	for i, row := range v.rows() {
		if row == r {
			return i
		}
	}
	return 0
}
