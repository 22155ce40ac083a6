package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

const DefaultContentType = "application/json"

type Config struct {
	PipedURL     string
	InvidiousURL string
	UserAgent    string
	Timeout      time.Duration
	MaxInvidious int
}

// Fetcher loads the live instance directories into the registry. The network
// fetch runs at most once per Fetcher no matter how many callers race on it.
type Fetcher struct {
	rest     *resty.Client
	registry ports.InstanceRegistry
	logger   *logger.StyledLogger
	config   Config
	mu       sync.Mutex
	done     atomic.Bool
}

func NewFetcher(cfg Config, registry ports.InstanceRegistry, log *logger.StyledLogger) *Fetcher {
	if cfg.PipedURL == "" {
		cfg.PipedURL = constants.PipedDiscoveryURL
	}
	if cfg.InvidiousURL == "" {
		cfg.InvidiousURL = constants.InvidiousDiscoveryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultDiscoveryTimeout
	}
	if cfg.MaxInvidious <= 0 {
		cfg.MaxInvidious = constants.MaxInvidiousInstances
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}

	return &Fetcher{
		rest: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", DefaultContentType),
		registry: registry,
		logger:   log,
		config:   cfg,
	}
}

// Refresh fetches both directories concurrently and replaces each provider's
// list when its directory yields at least one instance. Failures are logged
// and the previous list is kept.
func (f *Fetcher) Refresh(ctx context.Context) {
	if f.done.Load() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done.Load() {
		return
	}

	// a plain group: one directory failing must not cancel the other
	var g errgroup.Group
	g.Go(func() error {
		f.refreshProvider(ctx, domain.ProviderPiped, f.config.PipedURL, ParsePipedInstances)
		return nil
	})
	g.Go(func() error {
		f.refreshProvider(ctx, domain.ProviderInvidious, f.config.InvidiousURL, func(body []byte) ([]string, error) {
			return ParseInvidiousInstances(body, f.config.MaxInvidious)
		})
		return nil
	})
	_ = g.Wait()

	f.done.Store(true)
}

func (f *Fetcher) Refreshed() bool {
	return f.done.Load()
}

func (f *Fetcher) refreshProvider(ctx context.Context, provider domain.Provider, url string, parse func([]byte) ([]string, error)) {
	startTime := time.Now()

	body, err := f.fetch(ctx, provider, url)
	if err == nil {
		var urls []string
		urls, err = parse(body)
		if err == nil {
			if len(urls) == 0 {
				f.logger.WarnWithProvider(provider.String(), "Directory listed no instances, keeping defaults", url)
				return
			}
			f.registry.ReplaceList(provider, urls)
			f.logger.InfoWithCount(fmt.Sprintf("Discovered %s instances", provider), len(urls),
				"latency", time.Since(startTime).Round(time.Millisecond))
			return
		}
		err = NewDiscoveryError(provider, url, "parse_response", http.StatusOK, time.Since(startTime), err)
	}

	f.logger.WarnWithProvider(provider.String(), "Instance discovery failed, keeping defaults", url,
		"error", err, "parse_failure", IsParseFailure(err))
}

func (f *Fetcher) fetch(ctx context.Context, provider domain.Provider, url string) ([]byte, error) {
	startTime := time.Now()

	// the raw body is read here so the size cap applies before buffering
	resp, err := f.rest.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		networkErr := &NetworkError{URL: url, Err: err}
		return nil, NewDiscoveryError(provider, url, "http_request", 0, time.Since(startTime), networkErr)
	}
	defer func(Body io.ReadCloser) {
		// dont care about errors
		_ = Body.Close()
	}(resp.RawBody())

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status())
		return nil, NewDiscoveryError(provider, url, "http_status", resp.StatusCode(), time.Since(startTime), err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.RawBody(), constants.MaxDiscoveryBodyBytes))
	if err != nil {
		return nil, NewDiscoveryError(provider, url, "read_response", resp.StatusCode(), time.Since(startTime), err)
	}
	return body, nil
}
