package rollup

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
)

type fakeMutations struct {
	err      error
	seasons  []int
	episodes [][2]int
	// observed is called from inside the mutation to inspect optimistic state
	observed func()
}

func (f *fakeMutations) ToggleWatched(ctx context.Context, key domain.MediaKey) error { return f.err }

func (f *fakeMutations) SetLiked(ctx context.Context, key domain.MediaKey, liked bool) error {
	return f.err
}

func (f *fakeMutations) SetRating(ctx context.Context, key domain.MediaKey, rating float64) error {
	return f.err
}

func (f *fakeMutations) ToggleSeason(ctx context.Context, seriesID, seasonNo int) error {
	f.seasons = append(f.seasons, seasonNo)
	if f.observed != nil {
		f.observed()
	}
	return f.err
}

func (f *fakeMutations) ToggleEpisode(ctx context.Context, seriesID, seasonNo, episodeNo int) error {
	f.episodes = append(f.episodes, [2]int{seasonNo, episodeNo})
	if f.observed != nil {
		f.observed()
	}
	return f.err
}

type recorder struct {
	kinds    []notify.Kind
	messages []string
}

func (r *recorder) Notify(kind notify.Kind, message string) {
	r.kinds = append(r.kinds, kind)
	r.messages = append(r.messages, message)
}

func trackedShow(t *testing.T) *Show {
	t.Helper()
	s := NewShow(1438, []domain.Season{{SeasonNo: 0}, {SeasonNo: 1}, {SeasonNo: 2}})
	for no, eps := range map[int][]domain.Episode{0: episodes(2, 0, 20), 1: episodes(10, 9, 30), 2: episodes(4, 4, 50)} {
		if err := s.SetEpisodes(no, eps); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestTrackerEpisodeAppliedBeforeNetwork(t *testing.T) {
	s := trackedShow(t)
	rec := &recorder{}
	muts := &fakeMutations{}

	var seen domain.Season
	muts.observed = func() { seen, _ = s.Season(1) }

	var totals []AggregateChange
	s.OnAggregateChange(func(c AggregateChange) { totals = append(totals, c) })

	outcome, err := NewTracker(s, muts, rec, nil).ToggleEpisode(context.Background(), 1, 10)
	if err != nil || outcome != optimistic.OutcomeConfirmed {
		t.Fatalf("ToggleEpisode() = %v, %v", outcome, err)
	}
	if seen.EpisodesWatched != 10 || seen.TotalWatchedRuntime != 300 || !seen.Watched {
		t.Fatalf("state during call = %+v", seen)
	}
	if len(totals) != 1 || totals[0].TotalWatchedEpisodes != 14 || totals[0].TotalWatchedRuntime != 500 {
		t.Fatalf("aggregate callbacks = %+v", totals)
	}
	if rec.messages[0] != "Marked S01E10 as watched" {
		t.Fatalf("message = %q", rec.messages[0])
	}
	if len(muts.episodes) != 1 || muts.episodes[0] != [2]int{1, 10} {
		t.Fatalf("episode calls = %v", muts.episodes)
	}
}

func TestTrackerSeasonFailureRestoresSnapshot(t *testing.T) {
	s := trackedShow(t)
	before := s.Snapshot()
	beforeSeries := s.Series()

	rec := &recorder{}
	muts := &fakeMutations{err: domain.ErrMutationRejected}
	var during SeriesAggregate
	muts.observed = func() { during = s.Series() }

	outcome, err := NewTracker(s, muts, rec, nil).ToggleSeason(context.Background(), 1)
	if !errors.Is(err, domain.ErrMutationRejected) || outcome != optimistic.OutcomeRolledBack {
		t.Fatalf("ToggleSeason() = %v, %v", outcome, err)
	}
	if during.WatchedEpisodes != 14 {
		t.Fatalf("optimistic series total = %d, want 14", during.WatchedEpisodes)
	}

	if got := s.Series(); got != beforeSeries {
		t.Fatalf("series after rollback = %+v, want %+v", got, beforeSeries)
	}
	for _, no := range []int{0, 1, 2} {
		want, _ := before.Season(no)
		got, _ := s.Season(no)
		if got != want {
			t.Errorf("season %d = %+v, want %+v", no, got, want)
		}
		assertSteadyState(t, s, no)
	}
	eps, _ := s.Episodes(1)
	if eps[9].Watched {
		t.Fatal("episode flag not rolled back")
	}
	if len(rec.kinds) != 1 || rec.kinds[0] != notify.KindFailure {
		t.Fatalf("notifications = %v", rec.kinds)
	}
}

func TestTrackerRollbackKeepsEpisodesLoadedMeanwhile(t *testing.T) {
	s := NewShow(1438, []domain.Season{{SeasonNo: 1}, {SeasonNo: 2, EpisodeCount: 4}})
	if err := s.SetEpisodes(1, episodes(10, 9, 30)); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(s, &fakeMutations{}, nil, nil)

	a, err := tr.BeginToggleSeason(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetEpisodes(2, episodes(4, 1, 50)); err != nil {
		t.Fatal(err)
	}
	if outcome := a.Settle(errors.New("rejected")); outcome != optimistic.OutcomeRolledBack {
		t.Fatalf("outcome = %v", outcome)
	}

	eps, ok := s.Episodes(2)
	if !ok || len(eps) != 4 {
		t.Fatalf("season 2 episodes after rollback = %v, %v", eps, ok)
	}
	if season, _ := s.Season(2); season.EpisodesWatched != 1 {
		t.Fatalf("season 2 watched = %d, want 1", season.EpisodesWatched)
	}
	if season, _ := s.Season(1); season.Watched || season.EpisodesWatched != 9 {
		t.Fatalf("season 1 after rollback = %+v", season)
	}
	assertSteadyState(t, s, 1)
	assertSteadyState(t, s, 2)
}

func TestTrackerSerializesPerShow(t *testing.T) {
	s := trackedShow(t)
	tr := NewTracker(s, &fakeMutations{}, nil, nil)

	a, err := tr.BeginToggleEpisode(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !tr.Busy() {
		t.Fatal("expected busy")
	}
	if _, err := tr.BeginToggleSeason(2); !errors.Is(err, optimistic.ErrInFlight) {
		t.Fatalf("second toggle error = %v", err)
	}
	if season, _ := s.Season(2); !season.Watched {
		t.Fatal("rejected toggle changed state")
	}
	a.Settle(nil)
	if tr.Busy() {
		t.Fatal("still busy after settle")
	}
}

func TestTrackerClosedDropsResult(t *testing.T) {
	s := trackedShow(t)
	rec := &recorder{}
	tr := NewTracker(s, &fakeMutations{}, rec, nil)

	a, err := tr.BeginToggleSeason(2)
	if err != nil {
		t.Fatal(err)
	}
	tr.Close()
	if outcome := a.Settle(errors.New("late failure")); outcome != optimistic.OutcomeDropped {
		t.Fatalf("outcome = %v", outcome)
	}
	if len(rec.kinds) != 0 {
		t.Fatal("closed tracker notified")
	}
}

func TestTrackerEpisodeNeedsLoadedSeason(t *testing.T) {
	s := NewShow(1, []domain.Season{{SeasonNo: 1, EpisodeCount: 8}})
	muts := &fakeMutations{}
	_, err := NewTracker(s, muts, nil, nil).ToggleEpisode(context.Background(), 1, 1)
	if !errors.Is(err, domain.ErrNotLoaded) {
		t.Fatalf("error = %v", err)
	}
	if len(muts.episodes) != 0 {
		t.Fatal("no request expected")
	}
}
