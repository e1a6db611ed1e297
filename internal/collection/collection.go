// Package collection mirrors the per-row flags of one fetched catalog page
// (watched, liked, rating) and toggles them optimistically.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
)

// Collection holds the rows of one page, keyed "{childType}-{externalId}".
type Collection struct {
	mutations domain.MutationRepository
	logger    *slog.Logger

	watched *optimistic.Engine[bool]
	liked   *optimistic.Engine[bool]
	ratings *optimistic.Engine[float64]

	mu     sync.RWMutex
	gen    int
	closed bool
	order  []string
	items  map[string]*domain.MediaItem
}

// New creates an empty collection.
func New(mutations domain.MutationRepository, notifier notify.Notifier, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		mutations: mutations,
		logger:    logger,
		watched:   optimistic.New[bool](notifier, logger),
		liked:     optimistic.New[bool](notifier, logger),
		ratings:   optimistic.New[float64](notifier, logger),
		items:     make(map[string]*domain.MediaItem),
	}
}

// Replace discards every row and loads items. Operations begun before the
// call settle as dropped.
func (c *Collection) Replace(items []domain.MediaItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.order = make([]string, 0, len(items))
	c.items = make(map[string]*domain.MediaItem, len(items))
	for i := range items {
		item := items[i]
		key := item.Key().String()
		if _, dup := c.items[key]; dup {
			continue
		}
		c.order = append(c.order, key)
		c.items[key] = &item
	}
}

// Close detaches the collection from its view; pending operations are dropped.
func (c *Collection) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Len returns the number of rows
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Items returns copies of the rows in page order
func (c *Collection) Items() []domain.MediaItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.MediaItem, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.items[key])
	}
	return out
}

// Item returns a copy of one row
func (c *Collection) Item(key string) (domain.MediaItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok {
		return domain.MediaItem{}, false
	}
	return *item, true
}

func (c *Collection) IsWatched(key string) bool {
	item, _ := c.Item(key)
	return item.Completed
}

func (c *Collection) IsLiked(key string) bool {
	item, _ := c.Item(key)
	return item.Liked
}

func (c *Collection) Rating(key string) float64 {
	item, _ := c.Item(key)
	return item.Rating
}

// InFlight reports whether any operation on key is unsettled
func (c *Collection) InFlight(key string) bool {
	return c.watched.InFlight(key) || c.liked.InFlight(key) || c.ratings.InFlight(key)
}

// SetEpisodesWatched records a series aggregate reported by its detail view.
func (c *Collection) SetEpisodesWatched(key string, watched, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return
	}
	w, t := watched, total
	item.EpisodesWatched = &w
	item.TotalEpisodes = &t
	item.Completed = total > 0 && watched == total
}

// BeginToggleWatched flips the watched flag of key and returns the pending action.
func (c *Collection) BeginToggleWatched(key string) (*optimistic.Action, error) {
	item, alive, err := c.begin(key)
	if err != nil {
		return nil, err
	}
	op := optimistic.ToggleOp(key, item.Completed,
		setter(c, key, func(it *domain.MediaItem, v bool) { it.Completed = v }),
		func(ctx context.Context) error { return c.mutations.ToggleWatched(ctx, item.Key()) },
		func(next bool, ok bool) string {
			if !ok {
				return "Failed to update watch status !!"
			}
			if next {
				return fmt.Sprintf("Marked %s as watched", item.Title)
			}
			return fmt.Sprintf("Marked %s as unwatched", item.Title)
		},
	)
	op.Alive = alive
	return c.watched.Start(op)
}

// BeginToggleLiked flips the liked flag of key and returns the pending action.
func (c *Collection) BeginToggleLiked(key string) (*optimistic.Action, error) {
	item, alive, err := c.begin(key)
	if err != nil {
		return nil, err
	}
	op := optimistic.ToggleOp(key, item.Liked,
		setter(c, key, func(it *domain.MediaItem, v bool) { it.Liked = v }),
		func(ctx context.Context) error { return c.mutations.SetLiked(ctx, item.Key(), !item.Liked) },
		func(next bool, ok bool) string {
			if !ok {
				return "Failed to update like status !!"
			}
			if next {
				return fmt.Sprintf("Liked %s", item.Title)
			}
			return fmt.Sprintf("Unliked %s", item.Title)
		},
	)
	op.Alive = alive
	return c.liked.Start(op)
}

// BeginRate sets the user rating of key and returns the pending action.
func (c *Collection) BeginRate(key string, rating float64) (*optimistic.Action, error) {
	if math.IsNaN(rating) || rating < 0 || rating > 10 {
		return nil, fmt.Errorf("rating %v out of range 0-10", rating)
	}
	item, alive, err := c.begin(key)
	if err != nil {
		return nil, err
	}
	return c.ratings.Start(optimistic.Op[float64]{
		Key:    key,
		Prev:   item.Rating,
		Next:   rating,
		Apply:  setter(c, key, func(it *domain.MediaItem, v float64) { it.Rating = v }),
		Mutate: func(ctx context.Context) error { return c.mutations.SetRating(ctx, item.Key(), rating) },
		Describe: func(next float64, ok bool) string {
			if !ok {
				return "Failed to update rating !!"
			}
			return fmt.Sprintf("Rated %s %s", item.Title, strconv.FormatFloat(next, 'f', -1, 64))
		},
		Alive: alive,
	})
}

// ToggleWatched flips the watched flag and waits for the server.
func (c *Collection) ToggleWatched(ctx context.Context, key string) (optimistic.Outcome, error) {
	a, err := c.BeginToggleWatched(key)
	return run(ctx, a, err)
}

// ToggleLiked flips the liked flag and waits for the server.
func (c *Collection) ToggleLiked(ctx context.Context, key string) (optimistic.Outcome, error) {
	a, err := c.BeginToggleLiked(key)
	return run(ctx, a, err)
}

// Rate sets the rating and waits for the server.
func (c *Collection) Rate(ctx context.Context, key string, rating float64) (optimistic.Outcome, error) {
	a, err := c.BeginRate(key, rating)
	return run(ctx, a, err)
}

func run(ctx context.Context, a *optimistic.Action, err error) (optimistic.Outcome, error) {
	if err != nil {
		return optimistic.OutcomeDropped, err
	}
	return a.Run(ctx)
}

// begin snapshots the row and returns a liveness check bound to the
// current generation.
func (c *Collection) begin(key string) (domain.MediaItem, func() bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok {
		return domain.MediaItem{}, nil, fmt.Errorf("row %s: %w", key, domain.ErrItemNotFound)
	}
	gen := c.gen
	alive := func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return !c.closed && c.gen == gen
	}
	return *item, alive, nil
}

// setter writes one field of row key, ignoring rows that no longer exist.
func setter[T any](c *Collection, key string, set func(*domain.MediaItem, T)) func(T) {
	return func(v T) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if item, ok := c.items[key]; ok {
			set(item, v)
		}
	}
}
