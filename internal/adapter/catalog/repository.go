package catalog

import (
	"context"
	"strings"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/adapter/failover"
	"github.com/freytube/freytube/internal/adapter/mapper"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
)

const (
	invidiousSearchType = "video"
	invidiousSearchPage = 1
)

// Repository is the catalog entry point. Each method is exactly one failover
// run; results and errors pass through unchanged.
type Repository struct {
	executor *failover.Executor
}

func NewRepository(executor *failover.Executor) *Repository {
	return &Repository{executor: executor}
}

func (r *Repository) Trending(ctx context.Context, region string) ([]domain.StreamItem, error) {
	region = orDefault(region, constants.DefaultRegion)
	return failover.Run(ctx, r.executor, "trending",
		func(ctx context.Context, c *client.PipedClient) ([]domain.StreamItem, error) {
			return c.Trending(ctx, region)
		},
		func(ctx context.Context, c *client.InvidiousClient) ([]domain.StreamItem, error) {
			items, err := c.Trending(ctx, region)
			if err != nil {
				return nil, err
			}
			return mapper.ToStreamItems(items), nil
		},
	)
}

func (r *Repository) Streams(ctx context.Context, videoID string) (domain.VideoStream, error) {
	return failover.Run(ctx, r.executor, "streams",
		func(ctx context.Context, c *client.PipedClient) (domain.VideoStream, error) {
			return c.Streams(ctx, videoID)
		},
		func(ctx context.Context, c *client.InvidiousClient) (domain.VideoStream, error) {
			video, err := c.Video(ctx, videoID)
			if err != nil {
				return domain.VideoStream{}, err
			}
			return mapper.ToVideoStream(video), nil
		},
	)
}

func (r *Repository) Search(ctx context.Context, query, filter string) (domain.SearchResponse, error) {
	filter = orDefault(filter, constants.DefaultSearchFilter)
	return failover.Run(ctx, r.executor, "search",
		func(ctx context.Context, c *client.PipedClient) (domain.SearchResponse, error) {
			return c.Search(ctx, query, filter)
		},
		func(ctx context.Context, c *client.InvidiousClient) (domain.SearchResponse, error) {
			items, err := c.Search(ctx, query, invidiousSearchType, invidiousSearchPage)
			if err != nil {
				return domain.SearchResponse{}, err
			}
			return mapper.ToSearchResponse(items), nil
		},
	)
}

// SearchNextPage has no fallback: Piped page tokens mean nothing to Invidious
func (r *Repository) SearchNextPage(ctx context.Context, query, filter, nextPage string) (domain.SearchResponse, error) {
	filter = orDefault(filter, constants.DefaultSearchFilter)
	return failover.Run[domain.SearchResponse](ctx, r.executor, "search_next_page",
		func(ctx context.Context, c *client.PipedClient) (domain.SearchResponse, error) {
			return c.SearchNextPage(ctx, query, filter, nextPage)
		},
		nil,
	)
}

func (r *Repository) Suggestions(ctx context.Context, query string) ([]string, error) {
	return failover.Run(ctx, r.executor, "suggestions",
		func(ctx context.Context, c *client.PipedClient) ([]string, error) {
			return c.Suggestions(ctx, query)
		},
		func(ctx context.Context, c *client.InvidiousClient) ([]string, error) {
			suggestions, err := c.Suggestions(ctx, query)
			if err != nil {
				return nil, err
			}
			return suggestions.Suggestions, nil
		},
	)
}

func (r *Repository) Channel(ctx context.Context, channelID string) (domain.Channel, error) {
	return failover.Run(ctx, r.executor, "channel",
		func(ctx context.Context, c *client.PipedClient) (domain.Channel, error) {
			return c.Channel(ctx, channelID)
		},
		func(ctx context.Context, c *client.InvidiousClient) (domain.Channel, error) {
			channel, err := c.Channel(ctx, channelID)
			if err != nil {
				return domain.Channel{}, err
			}
			return mapper.ToChannel(channel), nil
		},
	)
}

func (r *Repository) ChannelNextPage(ctx context.Context, channelID, nextPage string) (domain.Channel, error) {
	return failover.Run[domain.Channel](ctx, r.executor, "channel_next_page",
		func(ctx context.Context, c *client.PipedClient) (domain.Channel, error) {
			return c.ChannelNextPage(ctx, channelID, nextPage)
		},
		nil,
	)
}

func (r *Repository) Comments(ctx context.Context, videoID string) (domain.CommentsResponse, error) {
	return failover.Run(ctx, r.executor, "comments",
		func(ctx context.Context, c *client.PipedClient) (domain.CommentsResponse, error) {
			return c.Comments(ctx, videoID)
		},
		r.invidiousComments(videoID, ""),
	)
}

// CommentsNextPage falls back to Invidious with nextPage as the continuation
func (r *Repository) CommentsNextPage(ctx context.Context, videoID, nextPage string) (domain.CommentsResponse, error) {
	return failover.Run(ctx, r.executor, "comments_next_page",
		func(ctx context.Context, c *client.PipedClient) (domain.CommentsResponse, error) {
			return c.CommentsNextPage(ctx, videoID, nextPage)
		},
		r.invidiousComments(videoID, nextPage),
	)
}

func (r *Repository) invidiousComments(videoID, continuation string) failover.FallbackCall[domain.CommentsResponse] {
	return func(ctx context.Context, c *client.InvidiousClient) (domain.CommentsResponse, error) {
		comments, err := c.Comments(ctx, videoID, continuation)
		if err != nil {
			return domain.CommentsResponse{}, err
		}
		return mapper.ToCommentsResponse(comments), nil
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
