package ports

import (
	"context"

	"github.com/freytube/freytube/internal/core/domain"
)

// Catalog is the read side of the video catalog. Every call fails over across
// instances and providers before returning an error.
type Catalog interface {
	Trending(ctx context.Context, region string) ([]domain.StreamItem, error)
	Streams(ctx context.Context, videoID string) (domain.VideoStream, error)
	Search(ctx context.Context, query, filter string) (domain.SearchResponse, error)
	SearchNextPage(ctx context.Context, query, filter, nextPage string) (domain.SearchResponse, error)
	Suggestions(ctx context.Context, query string) ([]string, error)
	Channel(ctx context.Context, channelID string) (domain.Channel, error)
	ChannelNextPage(ctx context.Context, channelID, nextPage string) (domain.Channel, error)
	Comments(ctx context.Context, videoID string) (domain.CommentsResponse, error)
	CommentsNextPage(ctx context.Context, videoID, nextPage string) (domain.CommentsResponse, error)
}
