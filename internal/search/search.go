// Package search runs title searches against the server, re-ranks the
// results locally and falls back to the loaded page when the server fails.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mmcdole/servies/internal/domain"
)

// Keystroke debounce and minimum interval between network searches.
const (
	DefaultDelay    = 500 * time.Millisecond
	DefaultCooldown = 3 * time.Second
	resultTTL       = 5 * time.Minute
)

// Searcher is the server-side search
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.MediaItem, error)
}

// Service handles title search
type Service struct {
	repo    Searcher
	results *gocache.Cache
	logger  *slog.Logger

	// Local index for fallback matching
	indexMu sync.RWMutex
	index   []domain.MediaItem
}

// NewService creates a search service
func NewService(repo Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		results: gocache.New(resultTTL, 2*resultTTL),
		logger:  logger,
	}
}

// Search returns the servies matching query, best match first.
// Server failures fall back to the local index and are not returned.
func (s *Service) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := strings.ToLower(query)
	if cached, ok := s.results.Get(key); ok {
		s.logger.Debug("search cache hit", "query", query)
		return cached.([]domain.MediaItem), nil
	}

	results, err := s.repo.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("server search failed, falling back to local", "error", err)
		return s.SearchLocal(query), nil
	}

	ranked := rankResults(results, query)
	s.results.Set(key, ranked, gocache.DefaultExpiration)
	s.logger.Debug("search complete", "query", query, "results", len(ranked))
	return ranked, nil
}

// SearchLocal matches query against the local index only
func (s *Service) SearchLocal(query string) []domain.MediaItem {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()

	if len(s.index) == 0 {
		return nil
	}

	titles := make([]string, len(s.index))
	for i, item := range s.index {
		titles[i] = item.Title
	}

	matches := fuzzy.RankFindFold(query, titles)
	sort.Stable(matches)

	results := make([]domain.MediaItem, 0, len(matches))
	for _, m := range matches {
		results = append(results, s.index[m.OriginalIndex])
	}
	return results
}

// IndexItems replaces the local index, typically with the loaded page.
func (s *Service) IndexItems(items []domain.MediaItem) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index = append([]domain.MediaItem(nil), items...)
	s.logger.Debug("indexed items", "count", len(items))
}

// Flush drops every cached result
func (s *Service) Flush() {
	s.results.Flush()
}

// rankResults orders items by how well their title matches query.
func rankResults(items []domain.MediaItem, query string) []domain.MediaItem {
	query = strings.ToLower(query)

	type rankedItem struct {
		item  domain.MediaItem
		score int
	}
	ranked := make([]rankedItem, len(items))
	for i, item := range items {
		ranked[i] = rankedItem{item: item, score: matchScore(strings.ToLower(item.Title), query)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	out := make([]domain.MediaItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}

// matchScore is lower for better matches
func matchScore(title, query string) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	case fuzzy.Match(query, title):
		return 75
	default:
		return 100 + fuzzy.LevenshteinDistance(query, title)
	}
}
