package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolution results keyed by host. A stored nil tenant is
// a negative entry: the host is known to have no active domain, and the
// domain store should not be queried again until the entry expires.
type Cache interface {
	// Get returns the cached tenant and whether an entry exists. A nil
	// tenant with ok=true is a cached miss.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a resolution result (nil for a miss) with the given TTL.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes an entry.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize is the default maximum number of cached resolutions.
const DefaultCacheSize = 1000

// memoryCache is the default in-process cache with LRU eviction and
// periodic expiry cleanup.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewMemoryCache creates an in-memory cache with automatic cleanup.
func NewMemoryCache() Cache {
	return NewMemoryCacheWithSize(DefaultCacheSize)
}

// NewMemoryCacheWithSize creates an in-memory cache with a size limit.
func NewMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &memoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.cleanup()

	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		c.removeLRU(key)
		return nil, false
	}

	c.touchLRU(key)
	return item.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[key] = cacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.touchLRU(key)
}

func (c *memoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.removeLRU(key)
}

func (c *memoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

func (c *memoryCache) touchLRU(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *memoryCache) removeLRU(key string) {
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noopCache disables caching entirely. Useful in tests.
type noopCache struct{}

// NewNoopCache creates a cache that never stores anything.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(ctx context.Context, key string) (*Tenant, bool) { return nil, false }

func (noopCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {}

func (noopCache) Delete(ctx context.Context, key string) {}

func (noopCache) Close() error { return nil }
