// Package transfer streams remote media to local files.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"golang.org/x/time/rate"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/util"
	"github.com/freytube/freytube/pkg/pool"
)

const (
	partSuffix              = ".part"
	DefaultProgressInterval = 500 * time.Millisecond
	copyBufferSize          = 32 * 1024
)

var copyBuffers = pool.MustLitePool(func() *[]byte {
	buf := make([]byte, copyBufferSize)
	return &buf
})

// Progress is reported while a download runs. Total is -1 when the server
// does not send a length.
type Progress struct {
	Written int64
	Total   int64
	Done    bool
}

// Percent returns 0..100, or -1 when the total is unknown
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return -1
	}
	pct := int(p.Written * 100 / p.Total)
	return min(pct, 100)
}

type Config struct {
	UserAgent        string
	ProgressInterval time.Duration
}

type Downloader struct {
	client    *http.Client
	logger    *logger.StyledLogger
	userAgent string
	interval  time.Duration
}

// NewDownloader uses transport for requests; nil means the default transport.
// Downloads have no overall timeout, only ctx bounds them.
func NewDownloader(cfg Config, transport http.RoundTripper, log *logger.StyledLogger) *Downloader {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	return &Downloader{
		client:    &http.Client{Transport: transport},
		logger:    log,
		userAgent: cfg.UserAgent,
		interval:  cfg.ProgressInterval,
	}
}

// Download writes url to path via a sibling .part file that is renamed into
// place on success and removed on any failure, including cancellation.
// progress may be nil.
func (d *Downloader) Download(ctx context.Context, url, path string, progress func(Progress)) (int64, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}

	partPath := path + partSuffix
	file, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("create partial file: %w", err)
	}

	start := time.Now()
	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	d.logger.Info("Download started", "host", util.HostOf(url), "path", path, "size", humanSize(total))

	written, copyErr := d.copy(ctx, file, resp.Body, total, progress)
	closeErr := file.Close()

	if err := errors.Join(copyErr, closeErr); err != nil {
		d.discard(partPath)
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		return written, fmt.Errorf("download %s: %w", url, err)
	}
	if total > 0 && written != total {
		d.discard(partPath)
		return written, fmt.Errorf("download %s: short body, got %d of %d bytes", url, written, total)
	}
	if err := os.Rename(partPath, path); err != nil {
		d.discard(partPath)
		return written, fmt.Errorf("finalise download: %w", err)
	}

	progress(Progress{Written: written, Total: total, Done: true})
	d.logger.Info("Download finished",
		"path", path,
		"size", units.HumanSize(float64(written)),
		"duration", time.Since(start).Round(time.Millisecond))
	return written, nil
}

func (d *Downloader) copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress func(Progress)) (int64, error) {
	throttle := rate.Sometimes{Interval: d.interval}
	bufPtr := copyBuffers.Get()
	defer copyBuffers.Put(bufPtr)
	buf := *bufPtr
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			throttle.Do(func() {
				progress(Progress{Written: written, Total: total})
			})
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func (d *Downloader) discard(partPath string) {
	if err := os.Remove(partPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("Could not remove partial download", "path", partPath, "error", err)
	}
}

func humanSize(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return units.HumanSize(float64(n))
}
