package breaker

import (
	"context"
	"sync"
	"time"
)

type memoryState struct {
	failures    int
	failExpiry  time.Time
	openUntil   time.Time
	lastTouched time.Time
}

// MemoryStore keeps breaker state in process memory. Suitable for tests
// and single-worker deployments only: a per-process breaker under-trips
// when the same tenant is served by many workers.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*memoryState

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often stale state is purged. Zero
// disables the background cleanup.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) { ms.cleanupInterval = d }
}

// NewMemoryStore creates an in-memory breaker state store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		states:          make(map[string]*memoryState),
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}
	return ms
}

func (ms *MemoryStore) Tripped(ctx context.Context, key string) (bool, time.Duration, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st, ok := ms.states[key]
	if !ok {
		return false, 0, nil
	}

	now := time.Now()
	st.lastTouched = now
	if now.Before(st.openUntil) {
		return true, st.openUntil.Sub(now), nil
	}
	return false, 0, nil
}

func (ms *MemoryStore) Failure(ctx context.Context, key string, ttl time.Duration) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	st, ok := ms.states[key]
	if !ok || now.After(st.failExpiry) {
		st = &memoryState{}
		ms.states[key] = st
	}

	st.failures++
	st.failExpiry = now.Add(ttl)
	st.lastTouched = now
	return st.failures, nil
}

func (ms *MemoryStore) Trip(ctx context.Context, key string, d time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	st, ok := ms.states[key]
	if !ok {
		st = &memoryState{}
		ms.states[key] = st
	}
	st.openUntil = now.Add(d)
	st.lastTouched = now
	return nil
}

func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.states, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, st := range ms.states {
		if now.Sub(st.lastTouched) > time.Hour && now.After(st.openUntil) {
			delete(ms.states, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stop) })
}
