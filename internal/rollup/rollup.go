// Package rollup keeps episode, season and series watch aggregates consistent.
//
// Changes are planned as a (prev, next) pair of Snapshots so the caller can
// apply next optimistically and restore prev verbatim if the server rejects
// the change. A planned snapshot covers only the seasons the change touches,
// so restoring it leaves seasons loaded in the meantime alone.
package rollup

import (
	"fmt"
	"sort"

	"github.com/mmcdole/servies/internal/domain"
)

// SpecialsSeasonNo is the pseudo-season excluded from series totals.
const SpecialsSeasonNo = 0

// AggregateChange is passed upward whenever series totals may have changed.
type AggregateChange struct {
	TotalWatchedEpisodes int
	TotalWatchedRuntime  int
}

// SeriesAggregate sums all regular seasons of a show.
type SeriesAggregate struct {
	WatchedEpisodes int
	TotalEpisodes   int
	WatchedRuntime  int
	TotalRuntime    int
}

// Completed reports whether every regular episode is watched
func (a SeriesAggregate) Completed() bool {
	return a.TotalEpisodes > 0 && a.WatchedEpisodes == a.TotalEpisodes
}

// Percent returns the watched share of episodes
func (a SeriesAggregate) Percent() int {
	return Percent(a.WatchedEpisodes, a.TotalEpisodes)
}

// Percent returns watched/total as a whole percentage, 0 for an empty total.
func Percent(watched, total int) int {
	if total <= 0 {
		return 0
	}
	return watched * 100 / total
}

// seasonState is a season plus its episodes once they have been loaded.
type seasonState struct {
	season   domain.Season
	episodes []domain.Episode // nil until loaded
}

func (s seasonState) clone() seasonState {
	out := seasonState{season: s.season}
	if s.episodes != nil {
		out.episodes = append([]domain.Episode(nil), s.episodes...)
	}
	return out
}

// Snapshot is an immutable copy of every season of a show.
type Snapshot struct {
	seasons []seasonState
	only    []int // seasons Restore replaces; nil means all
}

// Season returns the season numbered no within the snapshot
func (s Snapshot) Season(no int) (domain.Season, bool) {
	for _, st := range s.seasons {
		if st.season.SeasonNo == no {
			return st.season, true
		}
	}
	return domain.Season{}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{seasons: make([]seasonState, len(s.seasons)), only: s.only}
	for i, st := range s.seasons {
		out.seasons[i] = st.clone()
	}
	return out
}

// Show tracks the watch aggregates of one series.
// Not safe for concurrent use; mutate it from a single event loop.
type Show struct {
	seriesID int
	seasons  []seasonState
	onChange func(AggregateChange)
}

// NewShow creates a tracker from the seasons reported by the server.
func NewShow(seriesID int, seasons []domain.Season) *Show {
	states := make([]seasonState, len(seasons))
	for i, s := range seasons {
		states[i] = seasonState{season: s}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].season.SeasonNo < states[j].season.SeasonNo
	})
	return &Show{seriesID: seriesID, seasons: states}
}

// SeriesID returns the external id of the series
func (s *Show) SeriesID() int { return s.seriesID }

// OnAggregateChange registers the upward callback.
func (s *Show) OnAggregateChange(fn func(AggregateChange)) {
	s.onChange = fn
}

// Seasons returns the seasons in ascending order
func (s *Show) Seasons() []domain.Season {
	out := make([]domain.Season, len(s.seasons))
	for i, st := range s.seasons {
		out[i] = st.season
	}
	return out
}

// Season returns one season
func (s *Show) Season(no int) (domain.Season, bool) {
	if st := s.find(no); st != nil {
		return st.season, true
	}
	return domain.Season{}, false
}

// Episodes returns the loaded episodes of a season
func (s *Show) Episodes(no int) ([]domain.Episode, bool) {
	st := s.find(no)
	if st == nil || st.episodes == nil {
		return nil, false
	}
	return append([]domain.Episode(nil), st.episodes...), true
}

// SetEpisodes attaches the episodes of a season and recomputes its
// aggregates from them.
func (s *Show) SetEpisodes(no int, episodes []domain.Episode) error {
	st := s.find(no)
	if st == nil {
		return fmt.Errorf("season %d: %w", no, domain.ErrItemNotFound)
	}
	eps := append([]domain.Episode{}, episodes...)
	sort.Slice(eps, func(i, j int) bool { return eps[i].EpisodeNo < eps[j].EpisodeNo })
	st.episodes = eps
	return s.Recompute(no)
}

// Series returns the totals over all regular seasons
func (s *Show) Series() SeriesAggregate {
	return aggregate(s.seasons)
}

// Snapshot copies the current state
func (s *Show) Snapshot() Snapshot {
	return Snapshot{seasons: s.seasons}.clone()
}

// Restore replaces the current state with snap. A planned snapshot only
// replaces the seasons it was planned for; episodes loaded after it was
// taken are kept and the season recomputed from them.
func (s *Show) Restore(snap Snapshot) {
	if snap.only == nil {
		s.seasons = snap.clone().seasons
		s.emit()
		return
	}
	for _, no := range snap.only {
		src, dst := snap.find(no), s.find(no)
		if src == nil || dst == nil {
			continue
		}
		st := src.clone()
		if st.episodes == nil && dst.episodes != nil {
			st.episodes = dst.episodes
			recompute(&st)
		}
		*dst = st
	}
	s.emit()
}

// PlanSeasonToggle computes the effect of marking a whole season
// watched or unwatched without applying it.
func (s *Show) PlanSeasonToggle(no int) (prev, next Snapshot, err error) {
	prev = s.Snapshot()
	prev.only = []int{no}
	next = prev.clone()

	st := next.find(no)
	if st == nil {
		return Snapshot{}, Snapshot{}, fmt.Errorf("season %d: %w", no, domain.ErrItemNotFound)
	}

	watched := !st.season.Watched
	for i := range st.episodes {
		st.episodes[i].Watched = watched
	}
	st.season.Watched = watched
	if watched {
		st.season.EpisodesWatched = st.season.EpisodeCount
		st.season.TotalWatchedRuntime = st.season.TotalRuntime
	} else {
		st.season.EpisodesWatched = 0
		st.season.TotalWatchedRuntime = 0
	}
	return prev, next, nil
}

// PlanEpisodeToggle computes the effect of flipping one episode without
// applying it. The season completes when its last episode is watched and
// stops being complete when any episode is unwatched.
func (s *Show) PlanEpisodeToggle(no, episodeNo int) (prev, next Snapshot, err error) {
	prev = s.Snapshot()
	prev.only = []int{no}
	next = prev.clone()

	st := next.find(no)
	if st == nil {
		return Snapshot{}, Snapshot{}, fmt.Errorf("season %d: %w", no, domain.ErrItemNotFound)
	}
	if st.episodes == nil {
		return Snapshot{}, Snapshot{}, fmt.Errorf("season %d episodes: %w", no, domain.ErrNotLoaded)
	}

	idx := -1
	for i, ep := range st.episodes {
		if ep.EpisodeNo == episodeNo {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Snapshot{}, Snapshot{}, fmt.Errorf("season %d episode %d: %w", no, episodeNo, domain.ErrItemNotFound)
	}

	ep := &st.episodes[idx]
	ep.Watched = !ep.Watched

	season := &st.season
	if ep.Watched {
		season.EpisodesWatched++
		season.TotalWatchedRuntime += ep.Runtime
	} else {
		season.EpisodesWatched--
		season.TotalWatchedRuntime -= ep.Runtime
	}
	season.EpisodesWatched = clamp(season.EpisodesWatched, 0, season.EpisodeCount)
	season.TotalWatchedRuntime = clamp(season.TotalWatchedRuntime, 0, season.TotalRuntime)

	if season.EpisodesWatched == season.EpisodeCount {
		season.Watched = true
	} else if season.Watched && !ep.Watched {
		season.Watched = false
	}
	return prev, next, nil
}

// ToggleSeason applies a season toggle and returns the snapshot to restore on failure.
func (s *Show) ToggleSeason(no int) (Snapshot, error) {
	prev, next, err := s.PlanSeasonToggle(no)
	if err != nil {
		return Snapshot{}, err
	}
	s.Restore(next)
	return prev, nil
}

// ToggleEpisode applies an episode toggle and returns the snapshot to restore on failure.
func (s *Show) ToggleEpisode(no, episodeNo int) (Snapshot, error) {
	prev, next, err := s.PlanEpisodeToggle(no, episodeNo)
	if err != nil {
		return Snapshot{}, err
	}
	s.Restore(next)
	return prev, nil
}

// Recompute rebuilds a season's aggregates from its episode flags.
func (s *Show) Recompute(no int) error {
	st := s.find(no)
	if st == nil {
		return fmt.Errorf("season %d: %w", no, domain.ErrItemNotFound)
	}
	if st.episodes == nil {
		return fmt.Errorf("season %d episodes: %w", no, domain.ErrNotLoaded)
	}
	recompute(st)
	s.emit()
	return nil
}

func (s *Show) find(no int) *seasonState {
	for i := range s.seasons {
		if s.seasons[i].season.SeasonNo == no {
			return &s.seasons[i]
		}
	}
	return nil
}

func (s Snapshot) find(no int) *seasonState {
	for i := range s.seasons {
		if s.seasons[i].season.SeasonNo == no {
			return &s.seasons[i]
		}
	}
	return nil
}

func (s *Show) emit() {
	if s.onChange == nil {
		return
	}
	agg := s.Series()
	s.onChange(AggregateChange{
		TotalWatchedEpisodes: agg.WatchedEpisodes,
		TotalWatchedRuntime:  agg.WatchedRuntime,
	})
}

// recompute derives season counters from loaded episodes.
func recompute(st *seasonState) {
	var watched, watchedRuntime, runtime int
	for _, ep := range st.episodes {
		runtime += ep.Runtime
		if ep.Watched {
			watched++
			watchedRuntime += ep.Runtime
		}
	}
	st.season.EpisodeCount = len(st.episodes)
	st.season.EpisodesWatched = watched
	st.season.TotalRuntime = runtime
	st.season.TotalWatchedRuntime = watchedRuntime
	st.season.Watched = st.season.EpisodeCount > 0 && watched == st.season.EpisodeCount
}

func aggregate(seasons []seasonState) SeriesAggregate {
	var agg SeriesAggregate
	for _, st := range seasons {
		if st.season.SeasonNo == SpecialsSeasonNo {
			continue
		}
		agg.WatchedEpisodes += st.season.EpisodesWatched
		agg.TotalEpisodes += st.season.EpisodeCount
		agg.WatchedRuntime += st.season.TotalWatchedRuntime
		agg.TotalRuntime += st.season.TotalRuntime
	}
	return agg
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
