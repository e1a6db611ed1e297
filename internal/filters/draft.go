package filters

import (
	"fmt"
	"sync"

	"github.com/mmcdole/servies/internal/domain"
	"golang.org/x/text/language"
)

// GenreState is the tri-state of a genre option
type GenreState int

const (
	GenreUnset GenreState = iota
	GenreIncluded
	GenreExcluded
)

func (g GenreState) String() string {
	switch g {
	case GenreIncluded:
		return "included"
	case GenreExcluded:
		return "excluded"
	default:
		return "unset"
	}
}

// Next returns the state after one click: unset → included → excluded → unset.
func (g GenreState) Next() GenreState {
	switch g {
	case GenreUnset:
		return GenreIncluded
	case GenreIncluded:
		return GenreExcluded
	default:
		return GenreUnset
	}
}

// Draft is a view's local copy of the filters. Edits stay local until Submit.
type Draft struct {
	store   *Store
	onQuery func(domain.FilterState)

	mu          sync.Mutex
	state       domain.FilterState
	unsubscribe func()
}

// NewDraft seeds a draft from store and keeps it in sync with external
// changes to the store. onQuery is called with the filters to query on
// Submit and Reset.
func NewDraft(store *Store, onQuery func(domain.FilterState)) *Draft {
	d := &Draft{store: store, onQuery: onQuery, state: store.Read()}
	d.unsubscribe = store.Subscribe(d.reseed)
	return d
}

func (d *Draft) reseed(f domain.FilterState) {
	d.mu.Lock()
	d.state = f.Clone()
	d.mu.Unlock()
}

// Close detaches the draft from the store.
func (d *Draft) Close() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

// State returns a copy of the draft
func (d *Draft) State() domain.FilterState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// Dirty reports whether the draft differs from the persisted filters
func (d *Draft) Dirty() bool {
	return !d.State().Equal(d.store.Read())
}

// GenreState returns the tri-state of genre g
func (d *Draft) GenreState(g string) GenreState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return genreState(d.state, g)
}

func genreState(f domain.FilterState, g string) GenreState {
	switch {
	case f.TickedGenres.Has(g):
		return GenreIncluded
	case f.CrossedGenres.Has(g):
		return GenreExcluded
	default:
		return GenreUnset
	}
}

// CycleGenre advances genre g one step and returns its new state.
func (d *Draft) CycleGenre(g string) GenreState {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := genreState(d.state, g).Next()
	d.setGenre(g, next)
	return next
}

// setGenre writes g into at most one of the two sets. Called with mu held.
func (d *Draft) setGenre(g string, st GenreState) {
	delete(d.state.TickedGenres, g)
	delete(d.state.CrossedGenres, g)
	switch st {
	case GenreIncluded:
		d.state.TickedGenres[g] = struct{}{}
	case GenreExcluded:
		d.state.CrossedGenres[g] = struct{}{}
	}
}

// ToggleLanguage checks or unchecks a language by BCP 47 code.
func (d *Draft) ToggleLanguage(code string) error {
	tag, err := language.Parse(code)
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", code, err)
	}
	key := tag.String()

	d.mu.Lock()
	defer d.mu.Unlock()
	toggleMember(d.state.Languages, key)
	return nil
}

// ToggleStatus checks or unchecks a series status
func (d *Draft) ToggleStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	toggleMember(d.state.Statuses, status)
}

// SetType restricts the catalog to one child type ("" for either)
func (d *Draft) SetType(t domain.ChildType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Type = t
}

// SetSort sets the sort field and direction
func (d *Draft) SetSort(by, dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.SortBy = by
	if dir == domain.SortAsc || dir == domain.SortDesc {
		d.state.SortDir = dir
	}
}

// Submit writes the whole draft to the store and queries with it.
func (d *Draft) Submit() error {
	draft := d.State()
	if err := d.store.SetFilters(Full(draft)); err != nil {
		return err
	}
	if d.onQuery != nil {
		d.onQuery(d.store.Read())
	}
	return nil
}

// Reset restores the defaults in the store and in the draft, then queries
// with the defaults.
func (d *Draft) Reset() error {
	err := d.store.ResetFilters()

	def := domain.DefaultFilterState()
	d.reseed(def)
	if d.onQuery != nil {
		d.onQuery(def.Clone())
	}
	return err
}

func toggleMember(set domain.StringSet, v string) {
	if set.Has(v) {
		delete(set, v)
		return
	}
	set[v] = struct{}{}
}
