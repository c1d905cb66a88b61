// Package tenant provides the request-scoped multi-tenancy core: domain
// resolution with positive/negative caching, tenant/user/impersonator
// context propagation, hierarchy traversal, and scoped execution with
// guaranteed cleanup.
//
// # Resolution
//
// A Resolver maps a request host to a tenant through the DomainStore,
// caching found tenants for a long TTL and not-found results for a
// short one so freshly provisioned domains start resolving quickly.
// Absence of a tenant is a valid terminal state (the public surface),
// never an error.
//
//	resolver := tenant.NewResolver(store,
//		tenant.WithResolverCache(tenant.NewRedisCache(client, "")),
//	)
//	t, err := resolver.Resolve(ctx, r.Host)
//
// # Context
//
// Tenant, acting user, and impersonator travel in the request context
// under private keys. Values are confined to the derived context, so
// concurrent requests never observe each other's identity.
//
// # Scopes
//
// RunInScope installs the tenant context, enters the registered
// ScopeGuards (e.g. the partition isolation switch), and guarantees
// guards are exited on every completion path including panics.
//
// The HTTP middleware composes all of the above at the request
// perimeter: resolve, enforce active/maintenance status, install
// context, enter guards, revert.
package tenant
