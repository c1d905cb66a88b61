package tenant

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Default cache lifetimes. Found tenants are cached long because domain
// bindings rarely change; misses are cached short so a freshly
// provisioned domain starts resolving within minutes.
const (
	DefaultHitTTL  = time.Hour
	DefaultMissTTL = 5 * time.Minute
)

// Resolver maps request hosts to tenants with positive and negative
// caching in front of the domain store.
type Resolver struct {
	store   DomainStore
	cache   Cache
	hitTTL  time.Duration
	missTTL time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverCache sets a custom cache implementation, e.g. the
// Redis-backed cache for multi-worker deployments.
func WithResolverCache(cache Cache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithHitTTL overrides how long found tenants are cached.
func WithHitTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.hitTTL = ttl
		}
	}
}

// WithMissTTL overrides how long not-found results are cached.
func WithMissTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.missTTL = ttl
		}
	}
}

// NewResolver creates a resolver backed by the given domain store.
// Without options it uses an in-process LRU cache and the default TTLs.
func NewResolver(store DomainStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:   store,
		cache:   NewMemoryCache(),
		hitTTL:  DefaultHitTTL,
		missTTL: DefaultMissTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a request host to its tenant. A nil tenant with a nil
// error means no tenant owns the host: callers render the public
// surface instead of failing. Only store errors other than not-found
// are propagated.
func (r *Resolver) Resolve(ctx context.Context, host string) (*Tenant, error) {
	host = NormalizeHost(host)
	if host == "" {
		return nil, nil
	}

	if t, ok := r.cache.Get(ctx, host); ok {
		return t, nil
	}

	t, err := r.store.FindActiveDomain(ctx, host)
	switch {
	case err == nil:
		r.cache.Set(ctx, host, t, r.hitTTL)
		return t, nil
	case errors.Is(err, ErrTenantNotFound):
		r.cache.Set(ctx, host, nil, r.missTTL)
		return nil, nil
	default:
		return nil, err
	}
}

// Invalidate drops cached resolutions for the given hosts. Called when
// domains are re-verified, re-pointed, or released at offboarding.
func (r *Resolver) Invalidate(ctx context.Context, hosts ...string) {
	for _, h := range hosts {
		if h = NormalizeHost(h); h != "" {
			r.cache.Delete(ctx, h)
		}
	}
}

// Close releases the underlying cache.
func (r *Resolver) Close() error { return r.cache.Close() }

// NormalizeHost lowercases the host and strips any port suffix.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
