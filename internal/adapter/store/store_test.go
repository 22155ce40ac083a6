package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/logger"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	s, err := New(context.Background(), config.StoreConfig{
		Type:  config.StoreTypeRedis,
		Redis: config.RedisConfig{Address: server.Addr(), Namespace: "test"},
	}, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, server
}

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), config.StoreConfig{}, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]*Store {
	redisStore, _ := newRedisStore(t)
	return map[string]*Store{
		"memory": newMemoryStore(t),
		"redis":  redisStore,
	}
}

func TestRecords_UpsertGetDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			entry := domain.HistoryEntry{VideoID: "v1", Title: "First", Timestamp: base}
			require.NoError(t, s.History.Upsert(ctx, entry))

			got, ok, err := s.History.Get(ctx, "v1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "First", got.Title)
			assert.True(t, base.Equal(got.Timestamp))

			entry.Title = "Renamed"
			require.NoError(t, s.History.Upsert(ctx, entry))
			list, err := s.History.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "Renamed", list[0].Title)

			require.NoError(t, s.History.Delete(ctx, "v1"))
			_, ok, err = s.History.Get(ctx, "v1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRecords_ListNewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"old", "newest", "middle"} {
				offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
				require.NoError(t, s.Subscriptions.Upsert(ctx, domain.Subscription{
					ChannelID: id,
					Timestamp: base.Add(offsets[i]),
				}))
			}

			list, err := s.Subscriptions.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "newest", list[0].ChannelID)
			assert.Equal(t, "middle", list[1].ChannelID)
			assert.Equal(t, "old", list[2].ChannelID)
		})
	}
}

func TestRecords_UpsertRejectsEmptyKey(t *testing.T) {
	s := newMemoryStore(t)
	err := s.Downloads.Upsert(context.Background(), domain.DownloadEntry{Title: "no id"})
	assert.Error(t, err)
}

func TestRecords_WatchPushesCurrentThenUpdates(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			require.NoError(t, s.Downloads.Upsert(ctx, domain.DownloadEntry{VideoID: "a", Timestamp: base}))
			updates := s.Downloads.Watch(ctx)

			first := receive(t, updates)
			require.Len(t, first, 1)
			assert.Equal(t, "a", first[0].VideoID)

			require.NoError(t, s.Downloads.Upsert(ctx, domain.DownloadEntry{
				VideoID:   "b",
				Status:    domain.DownloadDownloading,
				Timestamp: base.Add(time.Minute),
			}))
			second := receive(t, updates)
			require.Len(t, second, 2)
			assert.Equal(t, "b", second[0].VideoID)

			require.NoError(t, s.Downloads.Delete(ctx, "a"))
			third := receive(t, updates)
			require.Len(t, third, 1)

			cancel()
			assert.Eventually(t, func() bool {
				select {
				case _, ok := <-updates:
					return !ok
				default:
					return false
				}
			}, time.Second, 10*time.Millisecond)
		})
	}
}

func TestStore_LoadSettingsDefaults(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	settings, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	settings.PreferredInstance = "https://pipedapi.example.com"
	require.NoError(t, s.Settings.Upsert(ctx, settings))

	stored, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://pipedapi.example.com", stored.PreferredInstance)
}

func TestRedisBackend_NamespacedHash(t *testing.T) {
	s, server := newRedisStore(t)
	require.NoError(t, s.History.Upsert(context.Background(), domain.HistoryEntry{VideoID: "v9", Timestamp: base}))

	assert.True(t, server.Exists("test:history"))
	value := server.HGet("test:history", "v9")
	assert.Contains(t, value, `"video_id":"v9"`)
}

func TestRedisBackend_SkipsUnreadableRecords(t *testing.T) {
	s, server := newRedisStore(t)
	server.HSet("test:history", "broken", "{not json")
	require.NoError(t, s.History.Upsert(context.Background(), domain.HistoryEntry{VideoID: "ok", Timestamp: base}))

	list, err := s.History.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].VideoID)
}

func TestNew_RedisUnreachable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	server.Close()

	_, err = New(context.Background(), config.StoreConfig{
		Type:  config.StoreTypeRedis,
		Redis: config.RedisConfig{Address: addr},
	}, logger.NewDiscard())
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Type: "etcd"}, logger.NewDiscard())
	assert.Error(t, err)
}

func TestMemoryBackend_Closed(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Close())

	assert.ErrorIs(t, backend.Put(context.Background(), "k", "id", nil), ErrClosed)
	_, _, err := backend.Get(context.Background(), "k", "id")
	assert.ErrorIs(t, err, ErrClosed)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "watch channel closed early")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch update")
	}
	var zero T
	return zero
}
