package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/freytube/freytube/internal/adapter/store"
	"github.com/freytube/freytube/internal/adapter/transfer"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/util"
)

var errDownloadsNotStarted = errors.New("download service not started")

type activeDownload struct {
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool
}

// DownloadService fetches offline copies and mirrors their progress into the
// download store. Downloads interrupted by shutdown are left as paused.
type DownloadService struct {
	catalog    ports.Catalog
	downloader *transfer.Downloader
	storeSvc   *StoreService
	records    *store.Records[domain.DownloadEntry]
	logger     *logger.StyledLogger
	active     *xsync.Map[string, *activeDownload]
	baseCtx    context.Context
	cancel     context.CancelFunc
	directory  string
	now        func() time.Time
	wg         sync.WaitGroup
}

var _ ports.Downloads = (*DownloadService)(nil)

func NewDownloadService(catalog ports.Catalog, downloader *transfer.Downloader, storeSvc *StoreService, directory string, log *logger.StyledLogger) *DownloadService {
	return &DownloadService{
		catalog:    catalog,
		downloader: downloader,
		storeSvc:   storeSvc,
		directory:  directory,
		logger:     log,
		active:     xsync.NewMap[string, *activeDownload](),
		now:        time.Now,
	}
}

func (s *DownloadService) Name() string {
	return NameDownloads
}

func (s *DownloadService) Start(ctx context.Context) error {
	st, err := s.storeSvc.Store()
	if err != nil {
		return err
	}
	s.records = st.Downloads
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return nil
}

// Stop interrupts running downloads and waits for them to record their state
func (s *DownloadService) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("downloads still running: %w", ctx.Err())
	}
}

func (s *DownloadService) Dependencies() []string {
	return []string{NameStore}
}

// Enqueue resolves the stream through the catalog, records a pending entry
// and starts the transfer in the background.
func (s *DownloadService) Enqueue(ctx context.Context, req domain.DownloadRequest) (domain.DownloadEntry, error) {
	videoID := strings.TrimSpace(req.VideoID)
	if !domain.ValidVideoID(videoID) {
		return domain.DownloadEntry{}, domain.ErrInvalidDownload
	}
	if s.baseCtx == nil {
		return domain.DownloadEntry{}, errDownloadsNotStarted
	}
	if _, running := s.active.Load(videoID); running {
		return domain.DownloadEntry{}, domain.ErrDownloadInProgress
	}

	video, err := s.catalog.Streams(ctx, videoID)
	if err != nil {
		return domain.DownloadEntry{}, err
	}
	stream, ok := video.DownloadStream(req.Quality, req.AudioOnly)
	if !ok || stream.URL == "" {
		return domain.DownloadEntry{}, domain.ErrNoDownloadableStream
	}

	entry := domain.DownloadEntry{
		VideoID:   videoID,
		Title:     video.Title,
		Thumbnail: video.ThumbnailURL,
		Uploader:  video.Uploader,
		Duration:  video.Duration,
		Quality:   qualityLabel(stream, req.AudioOnly),
		SourceURL: stream.URL,
		FilePath:  filepath.Join(s.directory, videoID+extensionFor(stream, req.AudioOnly)),
		Status:    domain.DownloadPending,
		AudioOnly: req.AudioOnly,
		Timestamp: s.now(),
	}

	dlCtx, cancel := context.WithCancel(s.baseCtx)
	job := &activeDownload{cancel: cancel, done: make(chan struct{})}
	if _, loaded := s.active.LoadOrStore(videoID, job); loaded {
		cancel()
		return domain.DownloadEntry{}, domain.ErrDownloadInProgress
	}

	if err := s.records.Upsert(ctx, entry); err != nil {
		s.active.Delete(videoID)
		cancel()
		return domain.DownloadEntry{}, err
	}

	s.wg.Add(1)
	go s.run(dlCtx, job, entry)
	return entry, nil
}

// Cancel stops a running download, then removes its record and any file on
// disk. It reports whether there was anything to remove.
func (s *DownloadService) Cancel(ctx context.Context, videoID string) (bool, error) {
	if s.records == nil {
		return false, errDownloadsNotStarted
	}

	if job, ok := s.active.Load(videoID); ok {
		job.cancelled.Store(true)
		job.cancel()
		select {
		case <-job.done:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	entry, found, err := s.records.Get(ctx, videoID)
	if err != nil || !found {
		return false, err
	}
	if err := s.records.Delete(ctx, videoID); err != nil {
		return false, err
	}
	if entry.FilePath != "" {
		if err := os.Remove(entry.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Could not remove downloaded file", "path", entry.FilePath, "error", err)
		}
	}
	return true, nil
}

func (s *DownloadService) run(ctx context.Context, job *activeDownload, entry domain.DownloadEntry) {
	defer s.wg.Done()
	defer close(job.done)
	defer s.active.Delete(entry.VideoID)
	defer job.cancel()

	entry.Status = domain.DownloadDownloading
	s.save(entry)

	written, err := s.downloader.Download(ctx, entry.SourceURL, entry.FilePath, func(p transfer.Progress) {
		if p.Done {
			return
		}
		if pct := p.Percent(); pct >= 0 {
			entry.Progress = pct
		}
		entry.FileSize = p.Written
		entry.Timestamp = s.now()
		s.save(entry)
	})

	entry.Timestamp = s.now()
	switch {
	case job.cancelled.Load():
		return
	case err == nil:
		entry.Status = domain.DownloadCompleted
		entry.Progress = 100
		entry.FileSize = written
		entry.Error = ""
	case errors.Is(err, context.Canceled):
		entry.Status = domain.DownloadPaused
	default:
		entry.Status = domain.DownloadFailed
		entry.Error = err.Error()
		s.logger.ErrorWithEndpoint("Download failed from", util.HostOf(entry.SourceURL), "video_id", entry.VideoID, "error", err)
	}
	s.save(entry)
}

func (s *DownloadService) save(entry domain.DownloadEntry) {
	if err := s.records.Upsert(context.Background(), entry); err != nil {
		s.logger.Warn("Could not record download state", "video_id", entry.VideoID, "status", entry.Status, "error", err)
	}
}

func qualityLabel(stream domain.Stream, audioOnly bool) string {
	if audioOnly {
		return "audio"
	}
	return stream.QualityLabel()
}

func extensionFor(stream domain.Stream, audioOnly bool) string {
	mime := strings.ToLower(stream.MimeType)
	switch {
	case strings.Contains(mime, "webm"):
		return ".webm"
	case audioOnly:
		return ".m4a"
	default:
		return ".mp4"
	}
}
