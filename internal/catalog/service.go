// Package catalog fetches what the views display: pages of the collection,
// series details with their seasons, episodes, genres and user lists.
// Failed fetches are logged and returned; nothing is retried.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/rollup"
)

// ListReader reads user lists with their items
type ListReader interface {
	GetLists(ctx context.Context) ([]domain.ListMeta, error)
	GetListItems(ctx context.Context, listID int) ([]domain.MediaItem, error)
}

// Service orchestrates catalog reads.
type Service struct {
	repo   domain.CatalogRepository
	lists  ListReader
	logger *slog.Logger
}

// NewService creates a catalog service.
func NewService(repo domain.CatalogRepository, lists ListReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, lists: lists, logger: logger}
}

// FetchPage returns one page of the collection under filter
func (s *Service) FetchPage(ctx context.Context, filter domain.FilterState, page int) (*domain.Page, error) {
	p, err := s.repo.ListServies(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to fetch page", "page", page, "error", err)
		return nil, err
	}
	s.logger.Debug("fetched page", "page", p.Page, "totalPages", p.TotalPages, "count", len(p.Items))
	return p, nil
}

// FetchItem returns a single movie or series
func (s *Service) FetchItem(ctx context.Context, key domain.MediaKey) (*domain.MediaItem, error) {
	item, err := s.repo.GetItem(ctx, key)
	if err != nil {
		s.logger.Error("failed to fetch item", "key", key.String(), "error", err)
		return nil, err
	}
	return item, nil
}

// FetchDetail returns a series with its seasons
func (s *Service) FetchDetail(ctx context.Context, seriesID int) (*domain.SeriesDetail, error) {
	detail, err := s.repo.GetSeries(ctx, seriesID)
	if err != nil {
		s.logger.Error("failed to fetch series", "seriesID", seriesID, "error", err)
		return nil, err
	}
	return detail, nil
}

// FetchSeasons returns a series and a rollup Show seeded with its seasons.
func (s *Service) FetchSeasons(ctx context.Context, seriesID int) (*domain.SeriesDetail, *rollup.Show, error) {
	detail, err := s.FetchDetail(ctx, seriesID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("fetched seasons", "seriesID", seriesID, "count", len(detail.Seasons))
	return detail, rollup.NewShow(seriesID, detail.Seasons), nil
}

// FetchEpisodes returns the episodes of one season. The caller attaches
// them with Show.SetEpisodes on its own event loop.
func (s *Service) FetchEpisodes(ctx context.Context, seriesID, seasonNo int) ([]domain.Episode, error) {
	eps, err := s.repo.GetEpisodes(ctx, seriesID, seasonNo)
	if err != nil {
		s.logger.Error("failed to fetch episodes", "seriesID", seriesID, "season", seasonNo, "error", err)
		return nil, err
	}
	return eps, nil
}

// FetchGenres returns the genre options sorted by name
func (s *Service) FetchGenres(ctx context.Context, t domain.ChildType) ([]domain.Genre, error) {
	genres, err := s.repo.GetGenres(ctx, t)
	if err != nil {
		s.logger.Error("failed to fetch genres", "type", t, "error", err)
		return nil, err
	}
	sort.Slice(genres, func(i, j int) bool {
		return strings.ToLower(genres[i].Name) < strings.ToLower(genres[j].Name)
	})
	return genres, nil
}

// FetchLists returns the user's lists
func (s *Service) FetchLists(ctx context.Context) ([]domain.ListMeta, error) {
	lists, err := s.lists.GetLists(ctx)
	if err != nil {
		s.logger.Error("failed to fetch lists", "error", err)
		return nil, err
	}
	return lists, nil
}

// FetchListMembers returns the servies in a list
func (s *Service) FetchListMembers(ctx context.Context, listID int) ([]domain.MediaItem, error) {
	items, err := s.lists.GetListItems(ctx, listID)
	if err != nil {
		s.logger.Error("failed to fetch list items", "listID", listID, "error", err)
		return nil, fmt.Errorf("list %d: %w", listID, err)
	}
	return items, nil
}

// Search runs a server-side title search
func (s *Service) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	items, err := s.repo.Search(ctx, query)
	if err != nil {
		s.logger.Warn("search failed", "query", query, "error", err)
		return nil, err
	}
	return items, nil
}
