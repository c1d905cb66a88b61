package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	// Resolution misses are a valid terminal state, not a failure:
	// callers typically fall back to an anonymous/public context.
	ErrTenantNotFound = errors.New("tenant.errors.tenant_not_found")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("tenant.errors.no_tenant_in_context")

	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant.errors.inactive_tenant")

	// ErrMaintenanceMode is returned while a tenant is in maintenance.
	ErrMaintenanceMode = errors.New("tenant.errors.maintenance_mode")

	// ErrHierarchyCycle is returned when a parent walk revisits a tenant.
	// A cycle is a misconfiguration and always aborts the walk.
	ErrHierarchyCycle = errors.New("tenant.errors.hierarchy_cycle")

	// ErrHierarchyTooDeep is returned when the ancestor chain exceeds the
	// hop bound without reaching a root.
	ErrHierarchyTooDeep = errors.New("tenant.errors.hierarchy_too_deep")
)
