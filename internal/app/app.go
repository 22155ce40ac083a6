package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/freytube/freytube/internal/adapter/catalog"
	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/adapter/discovery"
	"github.com/freytube/freytube/internal/adapter/failover"
	"github.com/freytube/freytube/internal/adapter/instance"
	"github.com/freytube/freytube/internal/adapter/stats"
	"github.com/freytube/freytube/internal/adapter/transfer"
	"github.com/freytube/freytube/internal/app/services"
	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/telemetry"
)

// Core is the failover catalog stack without any server around it. The CLI
// commands use it directly.
type Core struct {
	Registry  *instance.Registry
	Clients   *client.Factory
	Discovery *discovery.Fetcher
	Stats     *stats.Collector
	Executor  *failover.Executor
	Catalog   *catalog.Repository
}

// NewCore builds the registry, clients and executor from cfg. reg may be nil
// to leave the failover metrics unregistered.
func NewCore(cfg *config.Config, reg prometheus.Registerer, log *logger.StyledLogger) *Core {
	registry := instance.NewRegistry(instance.Config{
		ResetScope:       cfg.Instances.ResetScope,
		Piped:            cfg.Instances.Piped,
		Invidious:        cfg.Instances.Invidious,
		FailureThreshold: cfg.Instances.FailureThreshold,
		Cooldown:         cfg.Instances.Cooldown,
	}, log)

	clients := client.NewFactory(client.Config{
		UserAgent:      cfg.Client.UserAgent,
		ConnectTimeout: cfg.Client.ConnectTimeout,
		ReadTimeout:    cfg.Client.ReadTimeout,
		WriteTimeout:   cfg.Client.WriteTimeout,
	}, log)

	fetcher := discovery.NewFetcher(discovery.Config{
		PipedURL:     cfg.Discovery.PipedURL,
		InvidiousURL: cfg.Discovery.InvidiousURL,
		UserAgent:    cfg.Client.UserAgent,
		Timeout:      cfg.Discovery.Timeout,
		MaxInvidious: cfg.Discovery.MaxInvidious,
	}, registry, log)

	collector := stats.NewCollector(log)
	executor := failover.NewExecutor(failover.Config{
		PrimaryAttempts:  cfg.Failover.PrimaryAttempts,
		FallbackAttempts: cfg.Failover.FallbackAttempts,
		DisableFallback:  cfg.Failover.DisableFallback,
	}, registry, clients, log,
		failover.WithMetrics(failover.NewMetrics(reg)),
		failover.WithStats(collector),
	)

	return &Core{
		Registry:  registry,
		Clients:   clients,
		Discovery: fetcher,
		Stats:     collector,
		Executor:  executor,
		Catalog:   catalog.NewRepository(executor),
	}
}

// Application is the long running server: catalog API, record store,
// downloads and background discovery.
type Application struct {
	config    *config.Config
	core      *Core
	manager   *services.ServiceManager
	http      *services.HTTPService
	telemetry telemetry.Runtime
	logger    *logger.StyledLogger
	StartTime time.Time
}

func New(startTime time.Time, cfg *config.Config, log *logger.StyledLogger) (*Application, error) {
	tel, err := telemetry.Setup(telemetry.Config{
		Enabled:    cfg.Telemetry.Tracing.Enabled,
		SampleRate: cfg.Telemetry.Tracing.SampleRate,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if cfg.Telemetry.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer, gatherer = promRegistry, promRegistry
	} else {
		gatherer = prometheus.NewRegistry()
	}

	core := NewCore(cfg, registerer, log)
	downloader := transfer.NewDownloader(transfer.Config{
		UserAgent:        cfg.Client.UserAgent,
		ProgressInterval: cfg.Downloads.ProgressInterval,
	}, core.Clients.Transport(), log)

	storeSvc := services.NewStoreService(cfg.Store, core.Registry, log)
	discoverySvc := services.NewDiscoveryService(core.Discovery, cfg.Discovery.Enabled, log)
	downloadSvc := services.NewDownloadService(core.Catalog, downloader, storeSvc, cfg.Downloads.Directory, log)
	httpSvc := services.NewHTTPService(cfg.Server, core.Catalog, core.Registry, core.Stats, gatherer, log)
	httpSvc.SetDependencies(storeSvc, discoverySvc, downloadSvc)

	manager := services.NewServiceManager(log)
	for _, svc := range []services.ManagedService{storeSvc, discoverySvc, downloadSvc, httpSvc} {
		if err := manager.Register(svc); err != nil {
			return nil, err
		}
	}

	return &Application{
		config:    cfg,
		core:      core,
		manager:   manager,
		http:      httpSvc,
		telemetry: tel,
		logger:    log,
		StartTime: startTime,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	go func() {
		select {
		case err := <-a.http.Errors():
			a.logger.Error("Server stopped unexpectedly", "error", err)
		case <-ctx.Done():
		}
	}()

	a.logger.InfoWithCount("Primary instances configured", a.core.Registry.Count(domain.ProviderPiped))
	return nil
}

// Stop shuts every service down within the configured shutdown timeout
func (a *Application) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.manager.Stop(stopCtx)
	if shutdownErr := a.telemetry.Shutdown(stopCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// Addr is the address the API is bound to once started
func (a *Application) Addr() string {
	return a.http.Addr()
}

func (a *Application) Core() *Core {
	return a.core
}
