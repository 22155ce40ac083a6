package store

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// ErrClosed is returned by a backend after Close
var ErrClosed = errors.New("store is closed")

// Backend persists encoded records grouped by kind. Implementations must be
// safe for concurrent use.
type Backend interface {
	Put(ctx context.Context, kind, id string, data []byte) error
	Get(ctx context.Context, kind, id string) ([]byte, bool, error)
	Delete(ctx context.Context, kind, id string) error
	All(ctx context.Context, kind string) (map[string][]byte, error)
	Close() error
}

// MemoryBackend keeps records in process. Contents are lost on restart.
type MemoryBackend struct {
	kinds  *xsync.Map[string, *xsync.Map[string, []byte]]
	closed atomic.Bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		kinds: xsync.NewMap[string, *xsync.Map[string, []byte]](),
	}
}

func (m *MemoryBackend) Put(_ context.Context, kind, id string, data []byte) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.kind(kind).Store(id, append([]byte(nil), data...))
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, kind, id string) ([]byte, bool, error) {
	if m.isClosed() {
		return nil, false, ErrClosed
	}
	data, ok := m.kind(kind).Load(id)
	return data, ok, nil
}

func (m *MemoryBackend) Delete(_ context.Context, kind, id string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.kind(kind).Delete(id)
	return nil
}

func (m *MemoryBackend) All(_ context.Context, kind string) (map[string][]byte, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	records := m.kind(kind)
	out := make(map[string][]byte, records.Size())
	records.Range(func(id string, data []byte) bool {
		out[id] = data
		return true
	})
	return out, nil
}

func (m *MemoryBackend) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *MemoryBackend) kind(kind string) *xsync.Map[string, []byte] {
	records, _ := m.kinds.LoadOrCompute(kind, func() (*xsync.Map[string, []byte], bool) {
		return xsync.NewMap[string, []byte](), false
	})
	return records
}

func (m *MemoryBackend) isClosed() bool {
	return m.closed.Load()
}
