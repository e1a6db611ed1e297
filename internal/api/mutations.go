package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/servies/internal/domain"
)

// ToggleWatched flips the watched status of a movie or series
func (c *Client) ToggleWatched(ctx context.Context, key domain.MediaKey) error {
	path := fmt.Sprintf("/%s/%s/%d/toggle", c.collection, key.ChildType, key.ExternalID)
	return c.mutate(ctx, http.MethodPut, path, nil)
}

// SetLiked sets the liked flag
func (c *Client) SetLiked(ctx context.Context, key domain.MediaKey, liked bool) error {
	query := url.Values{}
	query.Set("type", string(key.ChildType))
	query.Set("like", strconv.FormatBool(liked))
	return c.mutate(ctx, http.MethodPut, fmt.Sprintf("/%s/%d", c.collection, key.ExternalID), query)
}

// SetRating sets the user rating
func (c *Client) SetRating(ctx context.Context, key domain.MediaKey, rating float64) error {
	query := url.Values{}
	query.Set("type", string(key.ChildType))
	query.Set("rating", strconv.FormatFloat(rating, 'f', -1, 64))
	return c.mutate(ctx, http.MethodPut, fmt.Sprintf("/%s/%d", c.collection, key.ExternalID), query)
}

// ToggleSeason flips a whole season; the server cascades to its episodes.
func (c *Client) ToggleSeason(ctx context.Context, seriesID, seasonNo int) error {
	path := fmt.Sprintf("/%s/%d/Season/%d/toggle", c.collection, seriesID, seasonNo)
	return c.mutate(ctx, http.MethodPut, path, nil)
}

// ToggleEpisode flips one episode
func (c *Client) ToggleEpisode(ctx context.Context, seriesID, seasonNo, episodeNo int) error {
	path := fmt.Sprintf("/%s/%d/Season/%d/Episode/%d/toggle", c.collection, seriesID, seasonNo, episodeNo)
	return c.mutate(ctx, http.MethodPut, path, nil)
}

// AddToList adds a servie to a user list
func (c *Client) AddToList(ctx context.Context, listID int, key domain.MediaKey) error {
	path := fmt.Sprintf("/list/%d/add-servie/%s/%d", listID, key.ChildType, key.ExternalID)
	return c.mutate(ctx, http.MethodPost, path, nil)
}

// RemoveFromList removes a servie from a user list
func (c *Client) RemoveFromList(ctx context.Context, listID int, key domain.MediaKey) error {
	path := fmt.Sprintf("/list/%d/remove-servie/%s/%d", listID, key.ChildType, key.ExternalID)
	return c.mutate(ctx, http.MethodDelete, path, nil)
}
