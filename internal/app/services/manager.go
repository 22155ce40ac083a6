package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/freytube/freytube/internal/logger"
)

const (
	NameStore     = "store"
	NameDiscovery = "discovery"
	NameDownloads = "downloads"
	NameHTTP      = "http"
)

// ManagedService is one piece of the running application. Start and Stop
// are called once each, dependencies first on the way up and last on the way
// down.
type ManagedService interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Dependencies() []string
}

// ServiceManager starts services in dependency order and stops them in reverse
type ServiceManager struct {
	services   map[string]ManagedService
	logger     *logger.StyledLogger
	startOrder []string
	mu         sync.RWMutex
}

func NewServiceManager(log *logger.StyledLogger) *ServiceManager {
	return &ServiceManager{
		services: make(map[string]ManagedService),
		logger:   log,
	}
}

func (sm *ServiceManager) Register(service ManagedService) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	name := service.Name()
	if _, exists := sm.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}
	sm.services[name] = service
	sm.logger.Debug("Service registered", "name", name)
	return nil
}

// startOrderFor sorts services so each comes after everything it depends on.
// Ties are broken by name to keep startup deterministic.
func (sm *ServiceManager) startOrderFor() ([]string, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	pending := make(map[string]int, len(sm.services))
	dependants := make(map[string][]string, len(sm.services))
	for name, service := range sm.services {
		for _, dep := range service.Dependencies() {
			if _, ok := sm.services[dep]; !ok {
				return nil, fmt.Errorf("service %s depends on unregistered %s", name, dep)
			}
			pending[name]++
			dependants[dep] = append(dependants[dep], name)
		}
	}

	var ready []string
	for name := range sm.services {
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(sm.services))
	for len(ready) > 0 {
		slices.Sort(ready)
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for _, next := range dependants[current] {
			pending[next]--
			if pending[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(sm.services) {
		return nil, fmt.Errorf("circular service dependency")
	}
	return order, nil
}

// Start brings services up in order. On failure everything already started
// is stopped again before the error is returned.
func (sm *ServiceManager) Start(ctx context.Context) error {
	order, err := sm.startOrderFor()
	if err != nil {
		return err
	}

	sm.mu.Lock()
	sm.startOrder = order
	sm.mu.Unlock()

	started := make([]string, 0, len(order))
	for _, name := range order {
		if err := sm.services[name].Start(ctx); err != nil {
			sm.logger.Error("Failed to start service", "name", name, "error", err)
			slices.Reverse(started)
			_ = sm.stopServices(ctx, started)
			return fmt.Errorf("start %s: %w", name, err)
		}
		started = append(started, name)
		sm.logger.Debug("Service started", "name", name)
	}
	return nil
}

func (sm *ServiceManager) Stop(ctx context.Context) error {
	sm.mu.RLock()
	order := slices.Clone(sm.startOrder)
	sm.mu.RUnlock()

	slices.Reverse(order)
	return sm.stopServices(ctx, order)
}

// stopServices stops every named service and returns the first error
func (sm *ServiceManager) stopServices(ctx context.Context, names []string) error {
	var firstErr error
	for _, name := range names {
		service, ok := sm.services[name]
		if !ok {
			continue
		}
		if err := service.Stop(ctx); err != nil {
			sm.logger.Error("Failed to stop service", "name", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sm.logger.Debug("Service stopped", "name", name)
	}
	return firstErr
}

func (sm *ServiceManager) Get(name string) (ManagedService, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	service, ok := sm.services[name]
	return service, ok
}
