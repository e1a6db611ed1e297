package domain

import (
	"encoding/json"
	"sort"
)

// Sort directions
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable fields understood by the catalog
var SortFields = []string{"title", "releaseDate", "rating", "popularity"}

// StringSet is an unordered set that serializes as a sorted JSON array
type StringSet map[string]struct{}

// NewStringSet builds a set from values
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy (never nil)
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same members
func (s StringSet) Equal(o StringSet) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if !o.Has(v) {
			return false
		}
	}
	return true
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// FilterState is the catalog filter configuration.
// TickedGenres and CrossedGenres are disjoint.
type FilterState struct {
	Type          ChildType `json:"type"` // "" = either
	SortBy        string    `json:"sortBy"`
	SortDir       string    `json:"sortDir"`
	TickedGenres  StringSet `json:"tickedGenres"`
	CrossedGenres StringSet `json:"crossedGenres"`
	Languages     StringSet `json:"languages"`
	Statuses      StringSet `json:"statuses"`
}

// DefaultFilterState returns the documented defaults
func DefaultFilterState() FilterState {
	return FilterState{
		Type:          "",
		SortBy:        "title",
		SortDir:       SortAsc,
		TickedGenres:  StringSet{},
		CrossedGenres: StringSet{},
		Languages:     StringSet{},
		Statuses:      StringSet{},
	}
}

// Clone returns a deep copy
func (f FilterState) Clone() FilterState {
	f.TickedGenres = f.TickedGenres.Clone()
	f.CrossedGenres = f.CrossedGenres.Clone()
	f.Languages = f.Languages.Clone()
	f.Statuses = f.Statuses.Clone()
	return f
}

// Equal compares two filter states by value
func (f FilterState) Equal(o FilterState) bool {
	return f.Type == o.Type &&
		f.SortBy == o.SortBy &&
		f.SortDir == o.SortDir &&
		f.TickedGenres.Equal(o.TickedGenres) &&
		f.CrossedGenres.Equal(o.CrossedGenres) &&
		f.Languages.Equal(o.Languages) &&
		f.Statuses.Equal(o.Statuses)
}

// IsDefault reports whether f equals the defaults
func (f FilterState) IsDefault() bool {
	return f.Equal(DefaultFilterState())
}
