package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// negativeSentinel marks a cached resolution miss in Redis. Any value
// that fails to decode as a Tenant is also treated as a miss entry.
const negativeSentinel = "-"

// redisCache stores resolution results in Redis so cache hits and
// negative entries are shared across all workers serving a tenant.
type redisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a Redis-backed resolution cache. The prefix
// namespaces keys, defaulting to "tenant:resolve:".
func NewRedisCache(client redis.UniversalClient, prefix string) Cache {
	if prefix == "" {
		prefix = "tenant:resolve:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		// Treat unreachable Redis the same as a cache miss: resolution
		// falls through to the domain store.
		return nil, false
	}

	if raw == negativeSentinel {
		return nil, true
	}

	var t Tenant
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, true
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	val := negativeSentinel
	if t != nil {
		raw, err := json.Marshal(t)
		if err != nil {
			return
		}
		val = string(raw)
	}
	_ = c.client.Set(ctx, c.prefix+key, val, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) Close() error { return nil }
