package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freytube/freytube/internal/config"
)

const (
	defaultNamespace = "freytube"
	redisPingTimeout = 5 * time.Second
)

type redisCommander interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisBackend keeps each record kind in one hash under namespace:kind
type RedisBackend struct {
	client    redisCommander
	closeFn   func() error
	namespace string
}

// NewRedisBackend dials the configured server and checks it answers before
// handing back the backend.
func NewRedisBackend(ctx context.Context, cfg config.RedisConfig) (*RedisBackend, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis store requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	return newRedisBackendFromCommander(client, client.Close, cfg.Namespace), nil
}

func newRedisBackendFromCommander(client redisCommander, closeFn func() error, namespace string) *RedisBackend {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return &RedisBackend{client: client, closeFn: closeFn, namespace: namespace}
}

func (r *RedisBackend) Put(ctx context.Context, kind, id string, data []byte) error {
	if err := r.client.HSet(ctx, r.key(kind), id, string(data)).Err(); err != nil {
		return fmt.Errorf("redis put %s/%s: %w", kind, id, err)
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, kind, id string) ([]byte, bool, error) {
	value, err := r.client.HGet(ctx, r.key(kind), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s/%s: %w", kind, id, err)
	}
	return []byte(value), true, nil
}

func (r *RedisBackend) Delete(ctx context.Context, kind, id string) error {
	if err := r.client.HDel(ctx, r.key(kind), id).Err(); err != nil {
		return fmt.Errorf("redis delete %s/%s: %w", kind, id, err)
	}
	return nil
}

func (r *RedisBackend) All(ctx context.Context, kind string) (map[string][]byte, error) {
	values, err := r.client.HGetAll(ctx, r.key(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", kind, err)
	}
	out := make(map[string][]byte, len(values))
	for id, value := range values {
		out[id] = []byte(value)
	}
	return out, nil
}

func (r *RedisBackend) Close() error {
	return r.closeFn()
}

func (r *RedisBackend) key(kind string) string {
	return r.namespace + ":" + kind
}
