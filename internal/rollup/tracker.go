package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
)

// Tracker binds a Show to the server: toggles are applied to the show
// optimistically and the touched seasons are restored on failure.
//
// One operation per show is in flight at a time.
type Tracker struct {
	show      *Show
	mutations domain.MutationRepository
	engine    *optimistic.Engine[Snapshot]
	closed    atomic.Bool
}

// NewTracker creates a tracker for show
func NewTracker(show *Show, mutations domain.MutationRepository, notifier notify.Notifier, logger *slog.Logger) *Tracker {
	return &Tracker{
		show:      show,
		mutations: mutations,
		engine:    optimistic.New[Snapshot](notifier, logger),
	}
}

// Show returns the tracked show
func (t *Tracker) Show() *Show { return t.show }

// Close marks the owning view gone; pending toggles settle as dropped.
func (t *Tracker) Close() { t.closed.Store(true) }

// Busy reports whether a toggle is awaiting the server
func (t *Tracker) Busy() bool { return t.engine.InFlight(t.key()) }

// BeginToggleSeason marks a whole season watched or unwatched locally.
// The server is sent a single season toggle and cascades it to the episodes.
func (t *Tracker) BeginToggleSeason(no int) (*optimistic.Action, error) {
	prev, next, err := t.show.PlanSeasonToggle(no)
	if err != nil {
		return nil, err
	}
	seriesID := t.show.SeriesID()
	return t.engine.Start(t.op(prev, next,
		func(ctx context.Context) error { return t.mutations.ToggleSeason(ctx, seriesID, no) },
		func(next Snapshot, ok bool) string {
			season, _ := next.Season(no)
			if !ok {
				return "Failed to update season watch status !!"
			}
			return fmt.Sprintf("Marked %s as %s", season.DisplayTitle(), watchedWord(season.Watched))
		},
	))
}

// BeginToggleEpisode flips one episode locally and rolls the change up.
func (t *Tracker) BeginToggleEpisode(no, episodeNo int) (*optimistic.Action, error) {
	prev, next, err := t.show.PlanEpisodeToggle(no, episodeNo)
	if err != nil {
		return nil, err
	}
	seriesID := t.show.SeriesID()
	return t.engine.Start(t.op(prev, next,
		func(ctx context.Context) error { return t.mutations.ToggleEpisode(ctx, seriesID, no, episodeNo) },
		func(next Snapshot, ok bool) string {
			if !ok {
				return "Failed to update watch status !!"
			}
			watched := false
			if st := next.find(no); st != nil {
				for _, ep := range st.episodes {
					if ep.EpisodeNo == episodeNo {
						watched = ep.Watched
					}
				}
			}
			return fmt.Sprintf("Marked S%02dE%02d as %s", no, episodeNo, watchedWord(watched))
		},
	))
}

// ToggleSeason toggles a season and waits for the server.
func (t *Tracker) ToggleSeason(ctx context.Context, no int) (optimistic.Outcome, error) {
	a, err := t.BeginToggleSeason(no)
	if err != nil {
		return optimistic.OutcomeDropped, err
	}
	return a.Run(ctx)
}

// ToggleEpisode toggles an episode and waits for the server.
func (t *Tracker) ToggleEpisode(ctx context.Context, no, episodeNo int) (optimistic.Outcome, error) {
	a, err := t.BeginToggleEpisode(no, episodeNo)
	if err != nil {
		return optimistic.OutcomeDropped, err
	}
	return a.Run(ctx)
}

func (t *Tracker) op(prev, next Snapshot, mutate optimistic.MutateFunc, describe func(Snapshot, bool) string) optimistic.Op[Snapshot] {
	return optimistic.Op[Snapshot]{
		Key:      t.key(),
		Prev:     prev,
		Next:     next,
		Apply:    t.show.Restore,
		Mutate:   mutate,
		Describe: describe,
		Alive:    func() bool { return !t.closed.Load() },
	}
}

func (t *Tracker) key() string {
	return domain.MediaKey{ChildType: domain.ChildTypeSeries, ExternalID: t.show.SeriesID()}.String()
}

func watchedWord(watched bool) string {
	if watched {
		return "watched"
	}
	return "unwatched"
}
