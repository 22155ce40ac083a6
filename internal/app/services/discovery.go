package services

import (
	"context"
	"sync"

	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

// DiscoveryService runs the one-shot instance directory refresh in the
// background so startup never waits on the network.
type DiscoveryService struct {
	discovery ports.InstanceDiscovery
	logger    *logger.StyledLogger
	cancel    context.CancelFunc
	enabled   bool
	wg        sync.WaitGroup
}

func NewDiscoveryService(discovery ports.InstanceDiscovery, enabled bool, log *logger.StyledLogger) *DiscoveryService {
	return &DiscoveryService{
		discovery: discovery,
		enabled:   enabled,
		logger:    log,
	}
}

func (s *DiscoveryService) Name() string {
	return NameDiscovery
}

func (s *DiscoveryService) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Instance discovery disabled, using configured instances")
		return nil
	}

	// detached from the start context, Stop is what ends it
	refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.discovery.Refresh(refreshCtx)
	}()
	return nil
}

func (s *DiscoveryService) Stop(_ context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *DiscoveryService) Dependencies() []string {
	return nil
}

// Discovery exposes the refresher for status reporting
func (s *DiscoveryService) Discovery() ports.InstanceDiscovery {
	return s.discovery
}
