package domain

import "context"

// KVStore is the persisted key/value tier backing process-wide state.
type KVStore interface {
	// Get decodes the JSON value stored under key into dest.
	// Returns false if the key is absent or undecodable.
	Get(key string, dest any) bool

	// Put stores value as JSON under key.
	Put(key string, value any) error

	// Delete removes key.
	Delete(key string) error
}

// CatalogRepository: network reads (implemented by api.Client)
type CatalogRepository interface {
	ListServies(ctx context.Context, filter FilterState, page int) (*Page, error)
	GetItem(ctx context.Context, key MediaKey) (*MediaItem, error)
	GetSeries(ctx context.Context, id int) (*SeriesDetail, error)
	GetEpisodes(ctx context.Context, id, seasonNo int) ([]Episode, error)
	GetGenres(ctx context.Context, t ChildType) ([]Genre, error)
	Search(ctx context.Context, query string) ([]MediaItem, error)
}

// MutationRepository: state-changing requests. Each returns nil only on 200 OK.
type MutationRepository interface {
	ToggleWatched(ctx context.Context, key MediaKey) error
	SetLiked(ctx context.Context, key MediaKey, liked bool) error
	SetRating(ctx context.Context, key MediaKey, rating float64) error
	ToggleSeason(ctx context.Context, seriesID, seasonNo int) error
	ToggleEpisode(ctx context.Context, seriesID, seasonNo, episodeNo int) error
}

// ListRepository: list catalog and membership operations
type ListRepository interface {
	GetLists(ctx context.Context) ([]ListMeta, error)
	GetListMembers(ctx context.Context, listID int) ([]MediaKey, error)
	AddToList(ctx context.Context, listID int, key MediaKey) error
	RemoveFromList(ctx context.Context, listID int, key MediaKey) error
}
