// Package filters holds the catalog filter configuration in two tiers: a
// persisted, process-wide Store shared by every view, and a per-view Draft
// that is edited locally and only written back on Submit.
package filters

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/servies/internal/domain"
	"golang.org/x/text/language"
)

// StorageKey is the persisted key of the filter state.
const StorageKey = "filters"

// Partial lists the fields SetFilters replaces. nil fields are left untouched.
type Partial struct {
	Type          *domain.ChildType
	SortBy        *string
	SortDir       *string
	TickedGenres  domain.StringSet
	CrossedGenres domain.StringSet
	Languages     domain.StringSet
	Statuses      domain.StringSet
}

// Full returns a Partial replacing every field with those of f.
func Full(f domain.FilterState) Partial {
	return Partial{
		Type:          &f.Type,
		SortBy:        &f.SortBy,
		SortDir:       &f.SortDir,
		TickedGenres:  f.TickedGenres,
		CrossedGenres: f.CrossedGenres,
		Languages:     f.Languages,
		Statuses:      f.Statuses,
	}
}

// Store is the persisted tier.
type Store struct {
	kv     domain.KVStore
	logger *slog.Logger

	mu     sync.Mutex
	state  *domain.FilterState // loaded on first access
	subs   map[int]func(domain.FilterState)
	nextID int
}

// NewStore creates the persisted tier on top of kv.
func NewStore(kv domain.KVStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger, subs: make(map[int]func(domain.FilterState))}
}

// Read returns the current persisted filters
func (s *Store) Read() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Clone()
}

// SetFilters shallow-merges p into the persisted filters.
func (s *Store) SetFilters(p Partial) error {
	s.mu.Lock()
	next := s.load().Clone()
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.SortBy != nil {
		next.SortBy = *p.SortBy
	}
	if p.SortDir != nil {
		next.SortDir = *p.SortDir
	}
	if p.TickedGenres != nil {
		next.TickedGenres = p.TickedGenres.Clone()
	}
	if p.CrossedGenres != nil {
		next.CrossedGenres = p.CrossedGenres.Clone()
	}
	if p.Languages != nil {
		next.Languages = canonicalLanguages(p.Languages)
	}
	if p.Statuses != nil {
		next.Statuses = p.Statuses.Clone()
	}
	// Keep genres disjoint: the set written by this call wins, ticked when both are.
	if p.CrossedGenres != nil && p.TickedGenres == nil {
		for g := range next.CrossedGenres {
			delete(next.TickedGenres, g)
		}
	} else {
		for g := range next.TickedGenres {
			delete(next.CrossedGenres, g)
		}
	}
	return s.commit(next)
}

// ResetFilters restores the defaults.
func (s *Store) ResetFilters() error {
	s.mu.Lock()
	return s.commit(domain.DefaultFilterState())
}

// Subscribe registers fn to be called with the new filters after every
// change. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(domain.FilterState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// commit persists next and notifies subscribers. Called with mu held; releases it.
func (s *Store) commit(next domain.FilterState) error {
	s.state = &next
	err := s.kv.Put(StorageKey, next)
	subs := make([]func(domain.FilterState), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to persist filters", "error", err)
	}
	for _, fn := range subs {
		fn(next.Clone())
	}
	return err
}

// load initializes the state from kv on first access. Called with mu held.
func (s *Store) load() domain.FilterState {
	if s.state != nil {
		return *s.state
	}
	state := domain.DefaultFilterState()
	var stored domain.FilterState
	if s.kv.Get(StorageKey, &stored) {
		state = normalize(stored)
	}
	s.state = &state
	return state
}

// normalize fills nil sets left by older or partial JSON and enforces disjoint genres.
func normalize(f domain.FilterState) domain.FilterState {
	def := domain.DefaultFilterState()
	if f.SortBy == "" {
		f.SortBy = def.SortBy
	}
	if f.SortDir != domain.SortAsc && f.SortDir != domain.SortDesc {
		f.SortDir = def.SortDir
	}
	f = f.Clone()
	for g := range f.TickedGenres {
		delete(f.CrossedGenres, g)
	}
	return f
}

// canonicalLanguages maps language codes to their BCP 47 form, dropping unparseable ones.
func canonicalLanguages(in domain.StringSet) domain.StringSet {
	out := make(domain.StringSet, len(in))
	for code := range in {
		if tag, err := language.Parse(code); err == nil {
			out[tag.String()] = struct{}{}
		}
	}
	return out
}
