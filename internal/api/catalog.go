package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/servies/internal/domain"
)

// ListServies returns one page of the collection under filter
func (c *Client) ListServies(ctx context.Context, filter domain.FilterState, page int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	query := FilterQuery(filter)
	query.Set("page", strconv.Itoa(page))
	if c.pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(c.pageSize))
	}

	var resp domain.Page
	if err := c.getJSON(ctx, "/"+c.collection, query, &resp); err != nil {
		return nil, err
	}
	if resp.Page == 0 {
		resp.Page = page
	}
	return &resp, nil
}

// FilterQuery encodes filter as query parameters. Empty fields are omitted.
func FilterQuery(f domain.FilterState) url.Values {
	query := url.Values{}
	if f.Type != "" {
		query.Set("type", string(f.Type))
	}
	if f.SortBy != "" {
		query.Set("sortBy", f.SortBy)
	}
	if f.SortDir != "" {
		query.Set("sortDir", f.SortDir)
	}
	setList(query, "genres", f.TickedGenres)
	setList(query, "excludeGenres", f.CrossedGenres)
	setList(query, "languages", f.Languages)
	setList(query, "statuses", f.Statuses)
	return query
}

func setList(query url.Values, name string, set domain.StringSet) {
	if len(set) > 0 {
		query.Set(name, strings.Join(set.Sorted(), ","))
	}
}

// GetItem returns a single movie or series
func (c *Client) GetItem(ctx context.Context, key domain.MediaKey) (*domain.MediaItem, error) {
	var item domain.MediaItem
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%s/%d", c.collection, key.ChildType, key.ExternalID), nil, &item); err != nil {
		return nil, err
	}
	item.ChildType = key.ChildType
	item.ExternalID = key.ExternalID
	return &item, nil
}

// GetSeries returns a series with its seasons
func (c *Client) GetSeries(ctx context.Context, id int) (*domain.SeriesDetail, error) {
	var resp domain.SeriesDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/series/%d", c.collection, id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ChildType == "" {
		resp.ChildType = domain.ChildTypeSeries
	}
	if resp.ExternalID == 0 {
		resp.ExternalID = id
	}
	return &resp, nil
}

// GetEpisodes returns the episodes of one season
func (c *Client) GetEpisodes(ctx context.Context, id, seasonNo int) ([]domain.Episode, error) {
	var resp struct {
		Episodes []domain.Episode `json:"episodes"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%d/Season/%d", c.collection, id, seasonNo), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Episodes, nil
}

// GetGenres returns the genre options for t ("" for all)
func (c *Client) GetGenres(ctx context.Context, t domain.ChildType) ([]domain.Genre, error) {
	query := url.Values{}
	if t != "" {
		query.Set("type", string(t))
	}
	var genres []domain.Genre
	if err := c.getJSON(ctx, "/genres", query, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// Search runs a title search over the collection
func (c *Client) Search(ctx context.Context, q string) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("query", q)
	var resp domain.Page
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/search", c.collection), query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetLists returns the user's lists
func (c *Client) GetLists(ctx context.Context) ([]domain.ListMeta, error) {
	var lists []domain.ListMeta
	if err := c.getJSON(ctx, "/list", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetListMembers returns the keys of the servies in a list
func (c *Client) GetListMembers(ctx context.Context, listID int) ([]domain.MediaKey, error) {
	items, err := c.GetListItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	keys := make([]domain.MediaKey, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key())
	}
	return keys, nil
}

// GetListItems returns the servies in a list
func (c *Client) GetListItems(ctx context.Context, listID int) ([]domain.MediaItem, error) {
	var resp struct {
		Items []domain.MediaItem `json:"items"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/list/%d", listID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

var (
	_ domain.CatalogRepository  = (*Client)(nil)
	_ domain.MutationRepository = (*Client)(nil)
	_ domain.ListRepository     = (*Client)(nil)
)
