package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/pkg/eventbus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	KindDownloads     = "downloads"
	KindHistory       = "history"
	KindSubscriptions = "subscriptions"
	KindSettings      = "settings"
)

// Record is anything the store can key and order
type Record interface {
	Key() string
	UpdatedAt() time.Time
}

// Records is a typed view over one kind in a backend. Every mutation pushes
// the fresh list to watchers.
type Records[T Record] struct {
	backend Backend
	bus     *eventbus.EventBus[[]T]
	logger  *logger.StyledLogger
	kind    string
}

func NewRecords[T Record](backend Backend, kind string, log *logger.StyledLogger) *Records[T] {
	return &Records[T]{
		backend: backend,
		kind:    kind,
		logger:  log,
		bus: eventbus.NewWithConfig[[]T](eventbus.Config{
			BufferSize: 1,
			Policy:     eventbus.KeepLatest,
		}),
	}
}

func (r *Records[T]) Upsert(ctx context.Context, record T) error {
	id := record.Key()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s record has no key", r.kind)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", r.kind, id, err)
	}
	if err := r.backend.Put(ctx, r.kind, id, data); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *Records[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var record T
	data, ok, err := r.backend.Get(ctx, r.kind, id)
	if err != nil || !ok {
		return record, false, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, false, fmt.Errorf("decode %s/%s: %w", r.kind, id, err)
	}
	return record, true, nil
}

func (r *Records[T]) Delete(ctx context.Context, id string) error {
	if err := r.backend.Delete(ctx, r.kind, id); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

// List returns every record, newest first. Records that fail to decode are
// skipped and logged.
func (r *Records[T]) List(ctx context.Context) ([]T, error) {
	raw, err := r.backend.All(ctx, r.kind)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(raw))
	for id, data := range raw {
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			r.logger.Warn("Skipping unreadable record", "kind", r.kind, "id", id, "error", err)
			continue
		}
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b T) int {
		if c := b.UpdatedAt().Compare(a.UpdatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
	return records, nil
}

// Watch emits the current list, then the full list again after every
// mutation. A slow reader only ever sees the latest list. The channel closes
// when ctx ends.
func (r *Records[T]) Watch(ctx context.Context) <-chan []T {
	updates, unsubscribe := r.bus.Subscribe(ctx)
	out := make(chan []T, 1)

	go func() {
		defer close(out)
		defer unsubscribe()

		if current, err := r.List(ctx); err == nil {
			select {
			case out <- current:
			case <-ctx.Done():
				return
			}
		} else {
			r.logger.Warn("Initial watch listing failed", "kind", r.kind, "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case list, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- list:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (r *Records[T]) notify(ctx context.Context) {
	list, err := r.List(context.WithoutCancel(ctx))
	if err != nil {
		r.logger.Warn("Could not refresh watchers", "kind", r.kind, "error", err)
		return
	}
	r.bus.Publish(list)
}

func (r *Records[T]) close() {
	r.bus.Shutdown()
}

// Store groups the record kinds the client keeps locally
type Store struct {
	backend       Backend
	Downloads     *Records[domain.DownloadEntry]
	History       *Records[domain.HistoryEntry]
	Subscriptions *Records[domain.Subscription]
	Settings      *Records[domain.Settings]
}

// New opens the configured backend
func New(ctx context.Context, cfg config.StoreConfig, log *logger.StyledLogger) (*Store, error) {
	var backend Backend
	switch cfg.Type {
	case "", config.StoreTypeMemory:
		backend = NewMemoryBackend()
	case config.StoreTypeRedis:
		redisBackend, err := NewRedisBackend(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		backend = redisBackend
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}

	log.Info("Record store ready", "type", orMemory(cfg.Type))
	return NewWithBackend(backend, log), nil
}

func NewWithBackend(backend Backend, log *logger.StyledLogger) *Store {
	return &Store{
		backend:       backend,
		Downloads:     NewRecords[domain.DownloadEntry](backend, KindDownloads, log),
		History:       NewRecords[domain.HistoryEntry](backend, KindHistory, log),
		Subscriptions: NewRecords[domain.Subscription](backend, KindSubscriptions, log),
		Settings:      NewRecords[domain.Settings](backend, KindSettings, log),
	}
}

// LoadSettings returns the stored settings or the defaults when none exist
func (s *Store) LoadSettings(ctx context.Context) (domain.Settings, error) {
	settings, ok, err := s.Settings.Get(ctx, domain.SettingsKey)
	if err != nil {
		return domain.Settings{}, err
	}
	if !ok {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *Store) Close() error {
	s.Downloads.close()
	s.History.close()
	s.Subscriptions.close()
	s.Settings.close()
	return s.backend.Close()
}

func orMemory(storeType string) string {
	if storeType == "" {
		return config.StoreTypeMemory
	}
	return storeType
}
