package services

import (
	"context"
	"errors"
	"strings"

	"github.com/freytube/freytube/internal/adapter/store"
	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

// StoreService opens the record store and applies the stored preferred
// instance to the registry.
type StoreService struct {
	config   config.StoreConfig
	registry ports.InstanceRegistry
	logger   *logger.StyledLogger
	store    *store.Store
}

func NewStoreService(cfg config.StoreConfig, registry ports.InstanceRegistry, log *logger.StyledLogger) *StoreService {
	return &StoreService{config: cfg, registry: registry, logger: log}
}

func (s *StoreService) Name() string {
	return NameStore
}

func (s *StoreService) Start(ctx context.Context) error {
	st, err := store.New(ctx, s.config, s.logger)
	if err != nil {
		return err
	}
	s.store = st

	settings, err := st.LoadSettings(ctx)
	if err != nil {
		s.logger.Warn("Could not read settings, using defaults", "error", err)
		return nil
	}
	if preferred := strings.TrimSpace(settings.PreferredInstance); preferred != "" {
		s.registry.SetPreferred(preferred)
		s.logger.InfoWithEndpoint("Applied preferred instance", preferred)
	}
	return nil
}

func (s *StoreService) Stop(_ context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *StoreService) Dependencies() []string {
	return nil
}

// Store is only valid after Start
func (s *StoreService) Store() (*store.Store, error) {
	if s.store == nil {
		return nil, errors.New("store service not started")
	}
	return s.store, nil
}
