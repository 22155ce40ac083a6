package client

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/freytube/freytube/internal/core/domain"
)

// InvidiousClient talks to one Invidious instance under api/v1. Responses
// are Invidious wire records and go through the mapper before leaving the
// catalog.
type InvidiousClient struct {
	rest    *resty.Client
	baseURL string
}

func (c *InvidiousClient) BaseURL() string {
	return c.baseURL
}

func (c *InvidiousClient) Trending(ctx context.Context, region string) ([]InvidiousVideoItem, error) {
	var items []InvidiousVideoItem
	err := c.get(ctx, c.rest.R().SetQueryParam("region", region), "api/v1/trending", &items)
	return items, err
}

func (c *InvidiousClient) Video(ctx context.Context, videoID string) (InvidiousVideoDetail, error) {
	var video InvidiousVideoDetail
	err := c.get(ctx, c.rest.R().SetPathParam("videoId", videoID), "api/v1/videos/{videoId}", &video)
	return video, err
}

func (c *InvidiousClient) Search(ctx context.Context, query, searchType string, page int) ([]InvidiousVideoItem, error) {
	var items []InvidiousVideoItem
	req := c.rest.R().SetQueryParams(map[string]string{
		"q":    query,
		"type": searchType,
		"page": strconv.Itoa(page),
	})
	err := c.get(ctx, req, "api/v1/search", &items)
	return items, err
}

func (c *InvidiousClient) Suggestions(ctx context.Context, query string) (InvidiousSuggestions, error) {
	var suggestions InvidiousSuggestions
	err := c.get(ctx, c.rest.R().SetQueryParam("q", query), "api/v1/search/suggestions", &suggestions)
	return suggestions, err
}

// Comments fetches the first page when continuation is empty
func (c *InvidiousClient) Comments(ctx context.Context, videoID, continuation string) (InvidiousCommentsResponse, error) {
	var comments InvidiousCommentsResponse
	req := c.rest.R().SetPathParam("videoId", videoID)
	if continuation != "" {
		req.SetQueryParam("continuation", continuation)
	}
	err := c.get(ctx, req, "api/v1/comments/{videoId}", &comments)
	return comments, err
}

func (c *InvidiousClient) Channel(ctx context.Context, channelID string) (InvidiousChannel, error) {
	var channel InvidiousChannel
	err := c.get(ctx, c.rest.R().SetPathParam("channelId", channelID), "api/v1/channels/{channelId}", &channel)
	return channel, err
}

func (c *InvidiousClient) get(ctx context.Context, req *resty.Request, path string, out any) error {
	return get(ctx, req, domain.ProviderInvidious, path, out)
}
