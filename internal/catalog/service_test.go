package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/servies/internal/domain"
)

type fakeRepo struct {
	err        error
	pageFilter domain.FilterState
	genres     []domain.Genre
}

func (f *fakeRepo) ListServies(ctx context.Context, filter domain.FilterState, page int) (*domain.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pageFilter = filter
	return &domain.Page{Page: page, TotalPages: 4, Items: []domain.MediaItem{{Title: "Heat"}}}, nil
}

func (f *fakeRepo) GetItem(ctx context.Context, key domain.MediaKey) (*domain.MediaItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MediaItem{ChildType: key.ChildType, ExternalID: key.ExternalID}, nil
}

func (f *fakeRepo) GetSeries(ctx context.Context, id int) (*domain.SeriesDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SeriesDetail{
		MediaItem: domain.MediaItem{ChildType: domain.ChildTypeSeries, ExternalID: id},
		Seasons: []domain.Season{
			{SeasonNo: 2, EpisodeCount: 10, EpisodesWatched: 10, Watched: true},
			{SeasonNo: 0, EpisodeCount: 3},
			{SeasonNo: 1, EpisodeCount: 10, EpisodesWatched: 5},
		},
	}, nil
}

func (f *fakeRepo) GetEpisodes(ctx context.Context, id, seasonNo int) ([]domain.Episode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Episode{{EpisodeNo: 1}}, nil
}

func (f *fakeRepo) GetGenres(ctx context.Context, t domain.ChildType) ([]domain.Genre, error) {
	return f.genres, f.err
}

func (f *fakeRepo) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	return nil, f.err
}

type fakeLists struct{ err error }

func (f fakeLists) GetLists(ctx context.Context) ([]domain.ListMeta, error) {
	return []domain.ListMeta{{ID: 1, Name: "Watchlist"}}, f.err
}

func (f fakeLists) GetListItems(ctx context.Context, listID int) ([]domain.MediaItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.MediaItem{{ChildType: domain.ChildTypeMovie, ExternalID: listID}}, nil
}

func TestFetchPagePassesFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, fakeLists{}, nil)

	f := domain.DefaultFilterState()
	f.Type = domain.ChildTypeMovie
	p, err := svc.FetchPage(context.Background(), f, 2)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if p.Page != 2 || len(p.Items) != 1 || repo.pageFilter.Type != domain.ChildTypeMovie {
		t.Fatalf("page = %+v filter = %+v", p, repo.pageFilter)
	}
}

func TestFetchSeasonsBuildsShow(t *testing.T) {
	svc := NewService(&fakeRepo{}, fakeLists{}, nil)

	detail, show, err := svc.FetchSeasons(context.Background(), 1438)
	if err != nil {
		t.Fatalf("FetchSeasons() error = %v", err)
	}
	if detail.ExternalID != 1438 || show.SeriesID() != 1438 {
		t.Fatalf("ids: detail=%d show=%d", detail.ExternalID, show.SeriesID())
	}
	seasons := show.Seasons()
	if seasons[0].SeasonNo != 0 || seasons[2].SeasonNo != 2 {
		t.Fatalf("seasons not ordered: %+v", seasons)
	}
	if agg := show.Series(); agg.WatchedEpisodes != 15 || agg.TotalEpisodes != 20 || agg.Percent() != 75 {
		t.Fatalf("series aggregate = %+v", agg)
	}
}

func TestFetchGenresSortsByName(t *testing.T) {
	repo := &fakeRepo{genres: []domain.Genre{{Name: "drama"}, {Name: "Action"}, {Name: "Comedy"}}}
	genres, err := NewService(repo, fakeLists{}, nil).FetchGenres(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if genres[0].Name != "Action" || genres[2].Name != "drama" {
		t.Fatalf("genres = %+v", genres)
	}
}

func TestFetchErrorsPropagate(t *testing.T) {
	svc := NewService(&fakeRepo{err: domain.ErrServerOffline}, fakeLists{err: domain.ErrServerOffline}, nil)
	ctx := context.Background()

	if _, err := svc.FetchPage(ctx, domain.DefaultFilterState(), 1); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("FetchPage() error = %v", err)
	}
	if _, _, err := svc.FetchSeasons(ctx, 1); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("FetchSeasons() error = %v", err)
	}
	if _, err := svc.FetchEpisodes(ctx, 1, 1); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("FetchEpisodes() error = %v", err)
	}
	if _, err := svc.FetchItem(ctx, domain.MediaKey{ChildType: domain.ChildTypeMovie, ExternalID: 1}); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("FetchItem() error = %v", err)
	}
	if _, err := svc.FetchListMembers(ctx, 3); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("FetchListMembers() error = %v", err)
	}
}
