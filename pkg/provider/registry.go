package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Factory builds one backend instance from its settings. The returned
// value must implement the capability interface the factory was
// registered under; the registry wraps it with the resilient proxy
// before handing it out.
type Factory func(s Settings) (any, error)

// Registry resolves capability implementations per tenant. Backends
// are registered explicitly at startup; resolution reads the tenant's
// "providers" config section, falls back to deployment defaults, and
// returns the backend wrapped in the resilient proxy. Resolved
// instances are cached per (tenant, capability, backend).
type Registry struct {
	rt       *Runtime
	defaults *Defaults

	mu        sync.RWMutex
	factories map[Capability]map[string]Factory
	cache     map[string]any
}

// NewRegistry creates a registry over the given runtime. When defaults
// is nil every capability must be configured per tenant.
func NewRegistry(rt *Runtime, defaults *Defaults) *Registry {
	if defaults == nil {
		defaults = &Defaults{Providers: map[Capability]BackendConfig{}}
	}
	return &Registry{
		rt:        rt,
		defaults:  defaults,
		factories: map[Capability]map[string]Factory{},
		cache:     map[string]any{},
	}
}

// Register installs a backend factory for a capability. Registering
// the same (capability, backend) twice replaces the factory.
func (r *Registry) Register(cap Capability, backend string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.factories[cap]
	if !ok {
		byName = map[string]Factory{}
		r.factories[cap] = byName
	}
	byName[backend] = f
}

// Sandbox reports whether the tenant runs in sandbox mode. The tenant
// config flag wins over the deployment default.
func (r *Registry) Sandbox(t *tenant.Tenant) bool {
	if t != nil {
		if v, ok := t.Config["sandbox"].(bool); ok {
			return v
		}
	}
	return r.defaults.Sandbox
}

// backendFor picks the backend name and settings for a capability:
// tenant config first, deployment defaults second.
func (r *Registry) backendFor(t *tenant.Tenant, cap Capability) (string, Settings, error) {
	if t != nil {
		section := t.ConfigSection("providers", string(cap))
		if name, ok := section["backend"].(string); ok && name != "" {
			settings, _ := section["settings"].(map[string]any)
			return name, Settings(settings), nil
		}
	}
	if def, ok := r.defaults.Providers[cap]; ok && def.Backend != "" {
		return def.Backend, def.Settings, nil
	}
	return "", nil, fmt.Errorf("%w: capability %s", ErrProviderNotConfigured, cap)
}

// resolve builds (or returns the cached) raw backend for the tenant.
func (r *Registry) resolve(ctx context.Context, cap Capability) (backend string, impl any, err error) {
	t, _ := tenant.FromContext(ctx)

	if r.Sandbox(t) {
		return "sandbox", newSandbox(cap, r.rt.log), nil
	}

	backend, settings, err := r.backendFor(t, cap)
	if err != nil {
		return "", nil, err
	}

	cacheKey := string(cap) + ":" + backend
	if t != nil {
		cacheKey = t.ID.String() + ":" + cacheKey
	}

	r.mu.RLock()
	cached, ok := r.cache[cacheKey]
	factory, hasFactory := r.factories[cap][backend]
	r.mu.RUnlock()
	if ok {
		return backend, cached, nil
	}
	if !hasFactory {
		return "", nil, fmt.Errorf("%w: %s backend %q", ErrUnknownBackend, cap, backend)
	}

	impl, err = factory(settings)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidConfig, err)
	}

	r.mu.Lock()
	r.cache[cacheKey] = impl
	r.mu.Unlock()
	return backend, impl, nil
}

// Invalidate drops cached backend instances for a tenant, e.g. after
// its provider configuration changed.
func (r *Registry) Invalidate(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		if len(key) > len(tenantID) && key[:len(tenantID)] == tenantID {
			delete(r.cache, key)
		}
	}
}

// Email resolves the tenant's email backend.
func (r *Registry) Email(ctx context.Context) (EmailSender, error) {
	backend, impl, err := r.resolve(ctx, CapabilityEmail)
	if err != nil {
		return nil, err
	}
	sender, ok := impl.(EmailSender)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement EmailSender", ErrInvalidConfig, CapabilityEmail, backend)
	}
	return ResilientEmail(backend, r.rt, sender), nil
}

// SMS resolves the tenant's SMS backend.
func (r *Registry) SMS(ctx context.Context) (SMSSender, error) {
	backend, impl, err := r.resolve(ctx, CapabilitySMS)
	if err != nil {
		return nil, err
	}
	sender, ok := impl.(SMSSender)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement SMSSender", ErrInvalidConfig, CapabilitySMS, backend)
	}
	return ResilientSMS(backend, r.rt, sender), nil
}

// Storage resolves the tenant's blob storage backend.
func (r *Registry) Storage(ctx context.Context) (BlobStorage, error) {
	backend, impl, err := r.resolve(ctx, CapabilityStorage)
	if err != nil {
		return nil, err
	}
	store, ok := impl.(BlobStorage)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement BlobStorage", ErrInvalidConfig, CapabilityStorage, backend)
	}
	return ResilientStorage(backend, r.rt, store), nil
}

// Search resolves the tenant's search backend.
func (r *Registry) Search(ctx context.Context) (SearchIndex, error) {
	backend, impl, err := r.resolve(ctx, CapabilitySearch)
	if err != nil {
		return nil, err
	}
	idx, ok := impl.(SearchIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement SearchIndex", ErrInvalidConfig, CapabilitySearch, backend)
	}
	return ResilientSearch(backend, r.rt, idx), nil
}

// Identity resolves the tenant's SSO backend. Identity providers are
// not proxied: the authorization-code flow runs in the user's browser
// and a circuit would lock tenants out of login.
func (r *Registry) Identity(ctx context.Context) (IdentityProvider, error) {
	backend, impl, err := r.resolve(ctx, CapabilityIdentity)
	if err != nil {
		return nil, err
	}
	idp, ok := impl.(IdentityProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement IdentityProvider", ErrInvalidConfig, CapabilityIdentity, backend)
	}
	return idp, nil
}

// Intelligence resolves the tenant's AI backend.
func (r *Registry) Intelligence(ctx context.Context) (Intelligence, error) {
	backend, impl, err := r.resolve(ctx, CapabilityIntelligence)
	if err != nil {
		return nil, err
	}
	ai, ok := impl.(Intelligence)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement Intelligence", ErrInvalidConfig, CapabilityIntelligence, backend)
	}
	return ResilientIntelligence(backend, r.rt, ai), nil
}

// Cache resolves the tenant's KV cache backend.
func (r *Registry) Cache(ctx context.Context) (KV, error) {
	backend, impl, err := r.resolve(ctx, CapabilityCache)
	if err != nil {
		return nil, err
	}
	kv, ok := impl.(KV)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement KV", ErrInvalidConfig, CapabilityCache, backend)
	}
	return ResilientKV(backend, r.rt, kv), nil
}

// Queue resolves the tenant's task queue backend.
func (r *Registry) Queue(ctx context.Context) (Queue, error) {
	backend, impl, err := r.resolve(ctx, CapabilityQueue)
	if err != nil {
		return nil, err
	}
	q, ok := impl.(Queue)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement Queue", ErrInvalidConfig, CapabilityQueue, backend)
	}
	return ResilientQueue(backend, r.rt, q), nil
}

// Audit resolves the tenant's audit sink.
func (r *Registry) Audit(ctx context.Context) (AuditSink, error) {
	backend, impl, err := r.resolve(ctx, CapabilityAudit)
	if err != nil {
		return nil, err
	}
	sink, ok := impl.(AuditSink)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement AuditSink", ErrInvalidConfig, CapabilityAudit, backend)
	}
	return ResilientAudit(backend, r.rt, sink), nil
}

// Flags resolves the tenant's feature flag source.
func (r *Registry) Flags(ctx context.Context) (FlagSource, error) {
	backend, impl, err := r.resolve(ctx, CapabilityFlags)
	if err != nil {
		return nil, err
	}
	src, ok := impl.(FlagSource)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend %q does not implement FlagSource", ErrInvalidConfig, CapabilityFlags, backend)
	}
	return ResilientFlags(backend, r.rt, src), nil
}
