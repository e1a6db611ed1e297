package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChildType distinguishes the two kinds of servie
type ChildType string

const (
	ChildTypeMovie  ChildType = "movie"
	ChildTypeSeries ChildType = "series"
)

// Valid reports whether t is a known child type
func (t ChildType) Valid() bool {
	return t == ChildTypeMovie || t == ChildTypeSeries
}

// MediaKey identifies a servie across the catalog: (childType, externalId)
type MediaKey struct {
	ChildType  ChildType
	ExternalID int
}

// String returns the composite row key, e.g. "movie-42"
func (k MediaKey) String() string {
	return fmt.Sprintf("%s-%d", k.ChildType, k.ExternalID)
}

// ParseMediaKey parses a "{childType}-{externalId}" row key
func ParseMediaKey(s string) (MediaKey, error) {
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return MediaKey{}, fmt.Errorf("invalid media key %q", s)
	}
	t := ChildType(s[:idx])
	if !t.Valid() {
		return MediaKey{}, fmt.Errorf("invalid media key %q: unknown type %q", s, t)
	}
	id, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return MediaKey{}, fmt.Errorf("invalid media key %q: %w", s, err)
	}
	return MediaKey{ChildType: t, ExternalID: id}, nil
}

// MediaItem represents a movie or series ("servie") as listed by the catalog
type MediaItem struct {
	ChildType    ChildType `json:"childType"`
	ExternalID   int       `json:"externalId"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"posterPath,omitempty"`
	ReleaseDate  string    `json:"releaseDate,omitempty"`  // Movies
	FirstAirDate string    `json:"firstAirDate,omitempty"` // Series
	LastAirDate  string    `json:"lastAirDate,omitempty"`
	Completed    bool      `json:"completed"`
	Liked        bool      `json:"liked"`
	Rating       float64   `json:"rating,omitempty"` // User rating, 0 = unrated

	// Series only
	EpisodesWatched *int `json:"episodesWatched,omitempty"`
	TotalEpisodes   *int `json:"totalEpisodes,omitempty"`
}

// Key returns the composite key of the item
func (m MediaItem) Key() MediaKey {
	return MediaKey{ChildType: m.ChildType, ExternalID: m.ExternalID}
}

// Year returns the release (or first air) year, 0 if unknown
func (m MediaItem) Year() int {
	date := m.ReleaseDate
	if m.ChildType == ChildTypeSeries {
		date = m.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Progress returns "watched/total" for series, empty for movies
func (m MediaItem) Progress() string {
	if m.EpisodesWatched == nil || m.TotalEpisodes == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *m.EpisodesWatched, *m.TotalEpisodes)
}

// Season belongs to exactly one series
type Season struct {
	SeasonNo            int    `json:"seasonNo"` // 0 = Specials
	Name                string `json:"name,omitempty"`
	EpisodeCount        int    `json:"episodeCount"`
	EpisodesWatched     int    `json:"episodesWatched"`
	Watched             bool   `json:"watched"`
	TotalRuntime        int    `json:"totalRuntime"`        // Minutes
	TotalWatchedRuntime int    `json:"totalWatchedRuntime"` // Minutes
}

// DisplayTitle returns the display title for the season
func (s Season) DisplayTitle() string {
	if s.SeasonNo == 0 {
		return "Specials"
	}
	if s.Name != "" && s.Name != fmt.Sprintf("Season %d", s.SeasonNo) {
		return fmt.Sprintf("Season %d: %s", s.SeasonNo, s.Name)
	}
	return fmt.Sprintf("Season %d", s.SeasonNo)
}

// Episode belongs to exactly one season
type Episode struct {
	EpisodeNo int    `json:"episodeNo"`
	Name      string `json:"name,omitempty"`
	AirDate   string `json:"airDate,omitempty"`
	Runtime   int    `json:"runtime"` // Minutes
	Watched   bool   `json:"watched"`
}

// SeriesDetail is a series with its seasons as returned by the detail endpoint
type SeriesDetail struct {
	MediaItem
	Overview string   `json:"overview,omitempty"`
	Seasons  []Season `json:"seasons"`
}

// Genre is a selectable genre option
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListMeta describes a user list
type ListMeta struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"itemCount"`
}

// Page is one page of catalog results
type Page struct {
	Items      []MediaItem `json:"results"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// FormatRuntime renders minutes as "2h 5m"
func FormatRuntime(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
