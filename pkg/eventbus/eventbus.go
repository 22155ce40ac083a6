package eventbus

/*
	EventBus - generic pub/sub for change notification

	Subscribers get a buffered channel. Publishing never blocks: when a
	subscriber's buffer is full the bus either drops the new event or, with
	KeepLatest, evicts the oldest buffered one so a slow reader always ends up
	with the most recent state.
*/
import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// DropPolicy decides what happens when a subscriber buffer is full
type DropPolicy int

const (
	DropNewest DropPolicy = iota
	KeepLatest
)

type EventBus[T any] struct {
	subscribers   *xsync.Map[string, *subscriber[T]]
	stopCleanup   chan struct{}
	isShutdown    atomic.Bool
	subscriberSeq atomic.Uint64
	config        Config
}

type subscriber[T any] struct {
	ch         chan T
	id         string
	lastActive atomic.Int64
	dropped    atomic.Uint64
	closed     bool
	mu         sync.Mutex
}

type Config struct {
	BufferSize      int
	Policy          DropPolicy
	CleanupPeriod   time.Duration
	InactiveTimeout time.Duration
}

var DefaultConfig = Config{
	BufferSize:      16,
	Policy:          DropNewest,
	CleanupPeriod:   5 * time.Minute,
	InactiveTimeout: 30 * time.Minute,
}

func New[T any]() *EventBus[T] {
	return NewWithConfig[T](DefaultConfig)
}

func NewWithConfig[T any](config Config) *EventBus[T] {
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}
	eb := &EventBus[T]{
		subscribers: xsync.NewMap[string, *subscriber[T]](),
		stopCleanup: make(chan struct{}),
		config:      config,
	}

	if config.CleanupPeriod > 0 && config.InactiveTimeout > 0 {
		go eb.cleanupLoop()
	}
	return eb
}

// Subscribe returns a channel of events and an unsubscribe func. The
// subscription also ends when ctx is done.
func (eb *EventBus[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	if eb.isShutdown.Load() {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	id := "sub_" + strconv.FormatUint(eb.subscriberSeq.Add(1), 10)
	sub := &subscriber[T]{
		id: id,
		ch: make(chan T, eb.config.BufferSize),
	}
	sub.lastActive.Store(time.Now().UnixNano())
	eb.subscribers.Store(id, sub)

	go func() {
		select {
		case <-ctx.Done():
			eb.unsubscribe(id)
		case <-eb.stopCleanup:
		}
	}()

	return sub.ch, func() { eb.unsubscribe(id) }
}

// Publish delivers event to every subscriber and returns how many received it
func (eb *EventBus[T]) Publish(event T) int {
	if eb.isShutdown.Load() {
		return 0
	}

	delivered := 0
	now := time.Now().UnixNano()
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		if sub.send(event, eb.config.Policy) {
			sub.lastActive.Store(now)
			delivered++
		}
		return true
	})
	return delivered
}

func (eb *EventBus[T]) Shutdown() {
	if !eb.isShutdown.CompareAndSwap(false, true) {
		return
	}
	close(eb.stopCleanup)

	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		sub.close()
		return true
	})
	eb.subscribers.Clear()
}

type Stats struct {
	Subscribers  int
	TotalDropped uint64
	IsShutdown   bool
}

func (eb *EventBus[T]) Stats() Stats {
	stats := Stats{IsShutdown: eb.isShutdown.Load()}
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		stats.Subscribers++
		stats.TotalDropped += sub.dropped.Load()
		return true
	})
	return stats
}

func (eb *EventBus[T]) unsubscribe(id string) {
	if sub, ok := eb.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

func (eb *EventBus[T]) cleanupLoop() {
	ticker := time.NewTicker(eb.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-eb.stopCleanup:
			return
		case <-ticker.C:
			eb.cleanupInactive(time.Now().Add(-eb.config.InactiveTimeout))
		}
	}
}

// cleanupInactive drops subscribers that have not taken an event since cutoff
func (eb *EventBus[T]) cleanupInactive(cutoff time.Time) {
	limit := cutoff.UnixNano()
	var stale []string
	eb.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		if sub.lastActive.Load() < limit {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		eb.unsubscribe(id)
	}
}

// send and close share the subscriber lock so a send never races a close
func (s *subscriber[T]) send(event T, policy DropPolicy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- event:
		return true
	default:
	}

	if policy == KeepLatest {
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
		select {
		case s.ch <- event:
			return true
		default:
		}
	}

	s.dropped.Add(1)
	return false
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
