package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/docker/go-units"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/freytube/freytube/internal/app/handlers"
	"github.com/freytube/freytube/internal/app/middleware"
	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

const maxHeaderBytes = 64 << 10

// HTTPService serves the local API once the store and downloads are up
type HTTPService struct {
	config       config.ServerConfig
	catalog      ports.Catalog
	registry     ports.InstanceRegistry
	stats        ports.StatsCollector
	gatherer     prometheus.Gatherer
	logger       *logger.StyledLogger
	storeSvc     *StoreService
	discoverySvc *DiscoveryService
	downloadSvc  *DownloadService
	rateLimiter  *middleware.RateLimiter
	server       *http.Server
	listener     net.Listener
	errCh        chan error
}

func NewHTTPService(
	cfg config.ServerConfig,
	catalog ports.Catalog,
	registry ports.InstanceRegistry,
	stats ports.StatsCollector,
	gatherer prometheus.Gatherer,
	log *logger.StyledLogger,
) *HTTPService {
	return &HTTPService{
		config:   cfg,
		catalog:  catalog,
		registry: registry,
		stats:    stats,
		gatherer: gatherer,
		logger:   log,
		errCh:    make(chan error, 1),
	}
}

// SetDependencies wires the services the handlers read from
func (s *HTTPService) SetDependencies(storeSvc *StoreService, discoverySvc *DiscoveryService, downloadSvc *DownloadService) {
	s.storeSvc = storeSvc
	s.discoverySvc = discoverySvc
	s.downloadSvc = downloadSvc
}

func (s *HTTPService) Name() string {
	return NameHTTP
}

func (s *HTTPService) Start(_ context.Context) error {
	if s.storeSvc == nil || s.downloadSvc == nil {
		return errors.New("http service dependencies not set")
	}
	st, err := s.storeSvc.Store()
	if err != nil {
		return err
	}

	s.rateLimiter = middleware.NewRateLimiter(s.config.RateLimits, s.logger)

	deps := handlers.Dependencies{
		Catalog:     s.catalog,
		Registry:    s.registry,
		Stats:       s.stats,
		Downloads:   s.downloadSvc,
		Store:       st,
		Gatherer:    s.gatherer,
		RateLimiter: s.rateLimiter,
		Logger:      s.logger,
	}
	if s.discoverySvc != nil {
		deps.Discovery = s.discoverySvc.Discovery()
	}
	application := handlers.NewApplication(deps)

	s.server = &http.Server{
		Addr:           s.config.GetAddress(),
		Handler:        application.Routes(s.config.RequestLogging),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	// listen up front so a taken port fails Start instead of a goroutine
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = listener
	s.rateLimiter.Start()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
			s.errCh <- err
		}
	}()

	s.logger.Info("FreyTube API listening",
		"bind", listener.Addr().String(),
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"max_header_size", units.HumanSize(float64(maxHeaderBytes)),
		"rate_limit_per_minute", s.config.RateLimits.RequestsPerMinute)
	return nil
}

func (s *HTTPService) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.rateLimiter.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *HTTPService) Dependencies() []string {
	return []string{NameStore, NameDiscovery, NameDownloads}
}

// Addr is the bound address, useful when the configured port is 0
func (s *HTTPService) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Errors reports a server that died after Start returned
func (s *HTTPService) Errors() <-chan error {
	return s.errCh
}
