package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheFailed wraps cache backend failures.
var ErrCacheFailed = errors.New("provider.errors.cache_failed")

// RedisKV serves the tenant cache from Redis. Every key is put under
// the configured namespace so tenants sharing a Redis never collide.
type RedisKV struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisKV builds a Redis cache backend from its settings. Required
// settings: "url" (redis connection URL) and "namespace".
func NewRedisKV(s Settings) (*RedisKV, error) {
	rawURL := s.String("url", "")
	namespace := s.String("namespace", "")
	if rawURL == "" || namespace == "" {
		return nil, fmt.Errorf("%w: redis url and namespace are required", ErrInvalidConfig)
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &RedisKV{client: redis.NewClient(opts), namespace: namespace}, nil
}

// NewRedisKVFromClient wraps an existing client, for deployments that
// share one Redis connection pool across capabilities.
func NewRedisKVFromClient(client redis.UniversalClient, namespace string) *RedisKV {
	return &RedisKV{client: client, namespace: namespace}
}

func (r *RedisKV) key(key string) string {
	return "cache:" + r.namespace + ":" + key
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrCacheFailed, err)
	}
	return value, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return errors.Join(ErrCacheFailed, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Join(ErrCacheFailed, err)
	}
	return nil
}

// RegisterCacheBackends installs the built-in cache factories.
func RegisterCacheBackends(r *Registry) {
	r.Register(CapabilityCache, "redis", func(s Settings) (any, error) {
		return NewRedisKV(s)
	})
}
