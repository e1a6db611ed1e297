package rollup

import (
	"errors"
	"testing"

	"github.com/mmcdole/servies/internal/domain"
)

func episodes(n, watched, runtime int) []domain.Episode {
	eps := make([]domain.Episode, n)
	for i := range eps {
		eps[i] = domain.Episode{EpisodeNo: i + 1, Runtime: runtime, Watched: i < watched}
	}
	return eps
}

// assertSteadyState checks counters against episode flags.
func assertSteadyState(t *testing.T, s *Show, no int) {
	t.Helper()
	season, _ := s.Season(no)
	eps, ok := s.Episodes(no)
	if !ok {
		t.Fatalf("season %d has no episodes loaded", no)
	}
	var watched, runtime int
	for _, ep := range eps {
		if ep.Watched {
			watched++
			runtime += ep.Runtime
		}
	}
	if season.EpisodesWatched != watched {
		t.Errorf("season %d: EpisodesWatched=%d, episodes say %d", no, season.EpisodesWatched, watched)
	}
	if season.TotalWatchedRuntime != runtime {
		t.Errorf("season %d: TotalWatchedRuntime=%d, episodes say %d", no, season.TotalWatchedRuntime, runtime)
	}
}

func TestEpisodeToggleCompletesSeason(t *testing.T) {
	s := NewShow(100, []domain.Season{{SeasonNo: 1}})
	if err := s.SetEpisodes(1, episodes(10, 9, 30)); err != nil {
		t.Fatalf("SetEpisodes() error = %v", err)
	}

	before, _ := s.Season(1)
	if before.EpisodeCount != 10 || before.EpisodesWatched != 9 || before.TotalRuntime != 300 || before.Watched {
		t.Fatalf("unexpected starting season: %+v", before)
	}

	if _, err := s.ToggleEpisode(1, 10); err != nil {
		t.Fatalf("ToggleEpisode() error = %v", err)
	}

	after, _ := s.Season(1)
	if after.EpisodesWatched != 10 || after.TotalWatchedRuntime != 300 || !after.Watched {
		t.Fatalf("expected 10 watched, 300 runtime, watched=true; got %+v", after)
	}
	assertSteadyState(t, s, 1)
}

func TestEpisodeUnwatchUncompletesSeason(t *testing.T) {
	s := NewShow(100, []domain.Season{{SeasonNo: 1}})
	_ = s.SetEpisodes(1, episodes(4, 4, 25))

	if season, _ := s.Season(1); !season.Watched {
		t.Fatal("expected fully watched season to be complete")
	}

	if _, err := s.ToggleEpisode(1, 2); err != nil {
		t.Fatalf("ToggleEpisode() error = %v", err)
	}
	season, _ := s.Season(1)
	if season.Watched || season.EpisodesWatched != 3 || season.TotalWatchedRuntime != 75 {
		t.Fatalf("expected incomplete season with 3 watched / 75 min, got %+v", season)
	}
	assertSteadyState(t, s, 1)
}

func TestSeasonToggleBulkUpdatesEpisodes(t *testing.T) {
	s := NewShow(100, []domain.Season{{SeasonNo: 1}, {SeasonNo: 2, EpisodeCount: 8, TotalRuntime: 400}})
	_ = s.SetEpisodes(1, episodes(5, 2, 40))

	if _, err := s.ToggleSeason(1); err != nil {
		t.Fatalf("ToggleSeason() error = %v", err)
	}
	season, _ := s.Season(1)
	if !season.Watched || season.EpisodesWatched != 5 || season.TotalWatchedRuntime != 200 {
		t.Fatalf("expected fully watched season, got %+v", season)
	}
	eps, _ := s.Episodes(1)
	for _, ep := range eps {
		if !ep.Watched {
			t.Fatalf("episode %d should be watched", ep.EpisodeNo)
		}
	}

	// Episodes never loaded: counters still follow the parent
	if _, err := s.ToggleSeason(2); err != nil {
		t.Fatalf("ToggleSeason(2) error = %v", err)
	}
	season2, _ := s.Season(2)
	if season2.EpisodesWatched != 8 || season2.TotalWatchedRuntime != 400 {
		t.Fatalf("expected season 2 fully watched by counters, got %+v", season2)
	}

	if _, err := s.ToggleSeason(1); err != nil {
		t.Fatalf("ToggleSeason() error = %v", err)
	}
	season, _ = s.Season(1)
	if season.Watched || season.EpisodesWatched != 0 || season.TotalWatchedRuntime != 0 {
		t.Fatalf("expected unwatched season, got %+v", season)
	}
	assertSteadyState(t, s, 1)
}

func TestRestoreRollsBackEveryLevel(t *testing.T) {
	s := NewShow(100, []domain.Season{{SeasonNo: 0}, {SeasonNo: 1}, {SeasonNo: 2}})
	_ = s.SetEpisodes(0, episodes(2, 0, 10))
	_ = s.SetEpisodes(1, episodes(3, 2, 20))
	_ = s.SetEpisodes(2, episodes(2, 0, 50))

	var changes []AggregateChange
	s.OnAggregateChange(func(c AggregateChange) { changes = append(changes, c) })

	seriesBefore := s.Series()
	seasonBefore, _ := s.Season(1)
	episodesBefore, _ := s.Episodes(1)

	prev, err := s.ToggleEpisode(1, 3)
	if err != nil {
		t.Fatalf("ToggleEpisode() error = %v", err)
	}
	if s.Series() == seriesBefore {
		t.Fatal("expected series totals to change optimistically")
	}

	s.Restore(prev)

	if s.Series() != seriesBefore {
		t.Fatalf("series not restored: %+v vs %+v", s.Series(), seriesBefore)
	}
	if season, _ := s.Season(1); season != seasonBefore {
		t.Fatalf("season not restored: %+v vs %+v", season, seasonBefore)
	}
	eps, _ := s.Episodes(1)
	for i := range eps {
		if eps[i] != episodesBefore[i] {
			t.Fatalf("episode %d not restored", eps[i].EpisodeNo)
		}
	}

	if len(changes) != 2 {
		t.Fatalf("expected upward callback on apply and restore, got %d", len(changes))
	}
	last := changes[len(changes)-1]
	if last.TotalWatchedEpisodes != seriesBefore.WatchedEpisodes || last.TotalWatchedRuntime != seriesBefore.WatchedRuntime {
		t.Fatalf("callback after restore reported %+v", last)
	}
}

func TestSeriesExcludesSpecials(t *testing.T) {
	s := NewShow(100, []domain.Season{
		{SeasonNo: 0, EpisodeCount: 3, EpisodesWatched: 3, TotalRuntime: 90, TotalWatchedRuntime: 90},
		{SeasonNo: 1, EpisodeCount: 10, EpisodesWatched: 4, TotalRuntime: 300, TotalWatchedRuntime: 120},
		{SeasonNo: 2, EpisodeCount: 10, EpisodesWatched: 0, TotalRuntime: 300},
	})

	agg := s.Series()
	if agg.TotalEpisodes != 20 || agg.WatchedEpisodes != 4 || agg.WatchedRuntime != 120 || agg.TotalRuntime != 600 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if agg.Percent() != 20 {
		t.Fatalf("expected 20%%, got %d", agg.Percent())
	}
	if agg.Completed() {
		t.Fatal("series should not be completed")
	}
}

func TestPercentGuardsZeroTotal(t *testing.T) {
	if got := Percent(0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	s := NewShow(1, []domain.Season{{SeasonNo: 1}})
	_ = s.SetEpisodes(1, nil)
	season, _ := s.Season(1)
	if season.Watched {
		t.Fatal("a season with no episodes must not be complete")
	}
	if s.Series().Percent() != 0 {
		t.Fatal("expected 0% for empty series")
	}
}

func TestPlanDoesNotMutate(t *testing.T) {
	s := NewShow(1, []domain.Season{{SeasonNo: 1}})
	_ = s.SetEpisodes(1, episodes(3, 1, 10))

	before := s.Series()
	if _, _, err := s.PlanSeasonToggle(1); err != nil {
		t.Fatalf("PlanSeasonToggle() error = %v", err)
	}
	if _, _, err := s.PlanEpisodeToggle(1, 2); err != nil {
		t.Fatalf("PlanEpisodeToggle() error = %v", err)
	}
	if s.Series() != before {
		t.Fatal("planning must not change state")
	}
}

func TestToggleErrors(t *testing.T) {
	s := NewShow(1, []domain.Season{{SeasonNo: 1, EpisodeCount: 2}})

	if _, err := s.ToggleSeason(9); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := s.ToggleEpisode(1, 1); !errors.Is(err, domain.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	_ = s.SetEpisodes(1, episodes(2, 0, 10))
	if _, err := s.ToggleEpisode(1, 5); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound for missing episode, got %v", err)
	}
}
