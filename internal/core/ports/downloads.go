package ports

import (
	"context"

	"github.com/freytube/freytube/internal/core/domain"
)

// Downloads runs offline copies in the background and tracks them in the
// download store.
type Downloads interface {
	Enqueue(ctx context.Context, req domain.DownloadRequest) (domain.DownloadEntry, error)
	Cancel(ctx context.Context, videoID string) (bool, error)
}
