package client

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/freytube/freytube/internal/core/domain"
)

// PipedClient talks to one Piped API instance. Responses decode straight
// into the canonical model.
type PipedClient struct {
	rest    *resty.Client
	baseURL string
}

func (c *PipedClient) BaseURL() string {
	return c.baseURL
}

func (c *PipedClient) Trending(ctx context.Context, region string) ([]domain.StreamItem, error) {
	var items []domain.StreamItem
	err := c.get(ctx, c.rest.R().SetQueryParam("region", region), "trending", &items)
	return items, err
}

func (c *PipedClient) Streams(ctx context.Context, videoID string) (domain.VideoStream, error) {
	var video domain.VideoStream
	err := c.get(ctx, c.rest.R().SetPathParam("videoId", videoID), "streams/{videoId}", &video)
	return video, err
}

func (c *PipedClient) Search(ctx context.Context, query, filter string) (domain.SearchResponse, error) {
	var result domain.SearchResponse
	req := c.rest.R().SetQueryParams(map[string]string{
		"q":      query,
		"filter": filter,
	})
	err := c.get(ctx, req, "search", &result)
	return result, err
}

func (c *PipedClient) SearchNextPage(ctx context.Context, query, filter, nextPage string) (domain.SearchResponse, error) {
	var result domain.SearchResponse
	req := c.rest.R().SetQueryParams(map[string]string{
		"q":        query,
		"filter":   filter,
		"nextpage": nextPage,
	})
	err := c.get(ctx, req, "nextpage/search", &result)
	return result, err
}

func (c *PipedClient) Suggestions(ctx context.Context, query string) ([]string, error) {
	var suggestions []string
	err := c.get(ctx, c.rest.R().SetQueryParam("query", query), "suggestions", &suggestions)
	return suggestions, err
}

func (c *PipedClient) Channel(ctx context.Context, channelID string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.get(ctx, c.rest.R().SetPathParam("channelId", channelID), "channel/{channelId}", &channel)
	return channel, err
}

func (c *PipedClient) ChannelNextPage(ctx context.Context, channelID, nextPage string) (domain.Channel, error) {
	var channel domain.Channel
	req := c.rest.R().
		SetPathParam("channelId", channelID).
		SetQueryParam("nextpage", nextPage)
	err := c.get(ctx, req, "nextpage/channel/{channelId}", &channel)
	return channel, err
}

func (c *PipedClient) Comments(ctx context.Context, videoID string) (domain.CommentsResponse, error) {
	var comments domain.CommentsResponse
	err := c.get(ctx, c.rest.R().SetPathParam("videoId", videoID), "comments/{videoId}", &comments)
	return comments, err
}

func (c *PipedClient) CommentsNextPage(ctx context.Context, videoID, nextPage string) (domain.CommentsResponse, error) {
	var comments domain.CommentsResponse
	req := c.rest.R().
		SetPathParam("videoId", videoID).
		SetQueryParam("nextpage", nextPage)
	err := c.get(ctx, req, "nextpage/comments/{videoId}", &comments)
	return comments, err
}

func (c *PipedClient) get(ctx context.Context, req *resty.Request, path string, out any) error {
	return get(ctx, req, domain.ProviderPiped, path, out)
}
