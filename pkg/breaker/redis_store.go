package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps breaker state in Redis so all workers observe the
// same circuit for a given (tenant, operation). The open marker is an
// expiring key: its TTL doubles as the retry-after duration, and its
// expiry implicitly half-opens the circuit.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed breaker state store. The prefix
// namespaces keys, defaulting to "breaker:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "breaker:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) openKey(key string) string { return rs.prefix + "open:" + key }
func (rs *RedisStore) failKey(key string) string { return rs.prefix + "fail:" + key }

func (rs *RedisStore) Tripped(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := rs.client.PTTL(ctx, rs.openKey(key)).Result()
	if err != nil {
		return false, 0, errors.Join(ErrStoreUnavailable, err)
	}
	// PTTL returns a negative duration for missing or non-expiring keys.
	if ttl > 0 {
		return true, ttl, nil
	}
	return false, 0, nil
}

func (rs *RedisStore) Failure(ctx context.Context, key string, ttl time.Duration) (int, error) {
	pipe := rs.client.TxPipeline()
	incr := pipe.Incr(ctx, rs.failKey(key))
	pipe.Expire(ctx, rs.failKey(key), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return int(incr.Val()), nil
}

func (rs *RedisStore) Trip(ctx context.Context, key string, d time.Duration) error {
	if err := rs.client.Set(ctx, rs.openKey(key), "1", d).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.failKey(key), rs.openKey(key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
