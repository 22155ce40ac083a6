package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/freytube/freytube/internal/adapter/store"
	"github.com/freytube/freytube/internal/app/middleware"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

// Dependencies are everything the HTTP layer reads from or writes to
type Dependencies struct {
	Catalog     ports.Catalog
	Registry    ports.InstanceRegistry
	Discovery   ports.InstanceDiscovery
	Stats       ports.StatsCollector
	Downloads   ports.Downloads
	Store       *store.Store
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
	Logger      *logger.StyledLogger
}

// Application holds the HTTP handlers for the local API
type Application struct {
	catalog     ports.Catalog
	registry    ports.InstanceRegistry
	discovery   ports.InstanceDiscovery
	stats       ports.StatsCollector
	downloads   ports.Downloads
	store       *store.Store
	gatherer    prometheus.Gatherer
	rateLimiter *middleware.RateLimiter
	logger      *logger.StyledLogger
	StartTime   time.Time
}

func NewApplication(deps Dependencies) *Application {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Application{
		catalog:     deps.Catalog,
		registry:    deps.Registry,
		discovery:   deps.Discovery,
		stats:       deps.Stats,
		downloads:   deps.Downloads,
		store:       deps.Store,
		gatherer:    gatherer,
		rateLimiter: deps.RateLimiter,
		logger:      deps.Logger,
		StartTime:   time.Now(),
	}
}
