// Package provider resolves and proxies tenant infrastructure
// backends: email, SMS, blob storage, search, identity, AI, cache,
// queue, audit, and feature flags.
//
// Backends register factories with a Registry; resolution reads the
// tenant's "providers" config section and falls back to deployment
// defaults. Every resolved backend is wrapped in a resilient proxy
// that routes calls through the circuit breaker, applies a per-call
// deadline, and records a telemetry entry per outcome. Read-path
// capabilities (search, cache reads, flags) degrade to a safe
// fallback instead of failing; mutating calls surface their errors.
//
// Tenants in sandbox mode get inert backends that log each call and
// report success without touching external services.
package provider
