package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IsolationMode describes where a tenant's data lives: in the shared
// partition alongside other tenants, or in a partition dedicated to it.
type IsolationMode string

const (
	// IsolationShared keeps tenant data in the common partition (logical isolation).
	IsolationShared IsolationMode = "SHARED"
	// IsolationDedicated gives the tenant its own partition (physical isolation).
	IsolationDedicated IsolationMode = "DEDICATED"
)

// Tenant represents an organization that owns its own data partition
// and configuration.
type Tenant struct {
	ID            uuid.UUID      `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	IsolationMode IsolationMode  `json:"isolation_mode"`
	Active        bool           `json:"active"`
	Maintenance   bool           `json:"maintenance"`
	ParentID      *uuid.UUID     `json:"parent_id,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ConfigSection returns a nested map from the tenant configuration,
// e.g. ConfigSection("communication", "email"). Returns an empty map
// when any level is missing or not a map, so callers can read defaults
// without nil checks.
func (t *Tenant) ConfigSection(path ...string) map[string]any {
	cur := t.Config
	for _, p := range path {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		cur = next
	}
	if cur == nil {
		return map[string]any{}
	}
	return cur
}

// ConfigString returns a string value from a config section, or fallback.
func ConfigString(section map[string]any, key, fallback string) string {
	if v, ok := section[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// DomainStatus is the verification state of a tenant domain.
type DomainStatus string

const (
	DomainPending DomainStatus = "PENDING"
	DomainActive  DomainStatus = "ACTIVE"
	DomainFailed  DomainStatus = "FAILED"
)

// Domain binds a hostname to exactly one tenant. Only ACTIVE domains
// participate in resolution. At most one active domain per tenant may
// be marked primary.
type Domain struct {
	ID        uuid.UUID    `json:"id"`
	Host      string       `json:"host"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	Status    DomainStatus `json:"status"`
	IsPrimary bool         `json:"is_primary"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// DomainStore loads tenants by their active domain. Implementations
// return ErrTenantNotFound when no ACTIVE domain matches the host.
type DomainStore interface {
	FindActiveDomain(ctx context.Context, host string) (*Tenant, error)
}

// Store loads tenants by ID. It is the minimal read contract the
// hierarchy walk and the quota engine depend on.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}
