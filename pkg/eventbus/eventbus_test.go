package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

type TestEvent struct {
	Message string
	ID      int
}

func noCleanup(buffer int, policy DropPolicy) Config {
	return Config{BufferSize: buffer, Policy: policy}
}

func TestEventBus_BasicPubSub(t *testing.T) {
	bus := New[TestEvent]()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, cleanup := bus.Subscribe(ctx)
	defer cleanup()

	testEvent := TestEvent{ID: 1, Message: "test"}
	if delivered := bus.Publish(testEvent); delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}

	select {
	case received := <-events:
		if received != testEvent {
			t.Errorf("Event mismatch: expected %+v, got %+v", testEvent, received)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(4, DropNewest))
	defer bus.Shutdown()

	const numSubscribers = 5
	var channels []<-chan TestEvent
	for i := 0; i < numSubscribers; i++ {
		events, cleanup := bus.Subscribe(context.Background())
		defer cleanup()
		channels = append(channels, events)
	}

	if delivered := bus.Publish(TestEvent{ID: 7}); delivered != numSubscribers {
		t.Errorf("Expected %d deliveries, got %d", numSubscribers, delivered)
	}
	for i, ch := range channels {
		select {
		case ev := <-ch:
			if ev.ID != 7 {
				t.Errorf("Subscriber %d got wrong event %+v", i, ev)
			}
		case <-time.After(time.Second):
			t.Errorf("Subscriber %d timed out", i)
		}
	}
}

func TestEventBus_ContextCancellation(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(1, DropNewest))
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events, _ := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("Expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel not closed after context cancellation")
	}

	if stats := bus.Stats(); stats.Subscribers != 0 {
		t.Errorf("Expected no subscribers, got %d", stats.Subscribers)
	}
}

func TestEventBus_DropNewestWhenFull(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(2, DropNewest))
	defer bus.Shutdown()

	events, cleanup := bus.Subscribe(context.Background())
	defer cleanup()

	for i := 1; i <= 4; i++ {
		bus.Publish(TestEvent{ID: i})
	}

	first, second := <-events, <-events
	if first.ID != 1 || second.ID != 2 {
		t.Errorf("Expected the first two events, got %d and %d", first.ID, second.ID)
	}
	if dropped := bus.Stats().TotalDropped; dropped != 2 {
		t.Errorf("Expected 2 dropped events, got %d", dropped)
	}
}

func TestEventBus_KeepLatestWhenFull(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(1, KeepLatest))
	defer bus.Shutdown()

	events, cleanup := bus.Subscribe(context.Background())
	defer cleanup()

	for i := 1; i <= 5; i++ {
		if delivered := bus.Publish(TestEvent{ID: i}); delivered != 1 {
			t.Errorf("Expected delivery of event %d", i)
		}
	}

	select {
	case ev := <-events:
		if ev.ID != 5 {
			t.Errorf("Expected latest event 5, got %d", ev.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for latest event")
	}
}

func TestEventBus_PublishRacingUnsubscribe(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(1, KeepLatest))
	defer bus.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		_, cleanup := bus.Subscribe(context.Background())
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(TestEvent{ID: 1})
		}()
		go func() {
			defer wg.Done()
			cleanup()
		}()
	}
	wg.Wait()
}

func TestEventBus_Shutdown(t *testing.T) {
	bus := New[TestEvent]()

	events, _ := bus.Subscribe(context.Background())
	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-events; ok {
		t.Error("Expected channel closed after shutdown")
	}
	if delivered := bus.Publish(TestEvent{ID: 1}); delivered != 0 {
		t.Errorf("Expected no deliveries after shutdown, got %d", delivered)
	}

	late, cleanup := bus.Subscribe(context.Background())
	cleanup()
	if _, ok := <-late; ok {
		t.Error("Expected closed channel when subscribing after shutdown")
	}
	if !bus.Stats().IsShutdown {
		t.Error("Expected stats to report shutdown")
	}
}

func TestEventBus_CleanupInactiveSubscribers(t *testing.T) {
	bus := NewWithConfig[TestEvent](noCleanup(1, DropNewest))
	defer bus.Shutdown()

	events, _ := bus.Subscribe(context.Background())
	bus.cleanupInactive(time.Now().Add(time.Minute))

	if _, ok := <-events; ok {
		t.Error("Expected inactive subscriber to be closed")
	}
	if stats := bus.Stats(); stats.Subscribers != 0 {
		t.Errorf("Expected 0 subscribers, got %d", stats.Subscribers)
	}
}
