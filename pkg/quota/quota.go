package quota

import (
	"time"

	"github.com/google/uuid"
)

// ZeroLimitPolicy resolves what a limit of zero means for a quota row.
// The interpretation is an explicit per-row field, never inferred from
// the numeric value.
type ZeroLimitPolicy string

const (
	// ZeroUnlimited treats a zero limit as no limit at all.
	ZeroUnlimited ZeroLimitPolicy = "UNLIMITED"
	// ZeroBlocked treats a zero limit as forbidding the resource.
	ZeroBlocked ZeroLimitPolicy = "BLOCKED_AT_ZERO"
)

// Quota is the usage limit for one (tenant, resource) pair. Usage is
// rolled up the tenant hierarchy: a child's consumption counts against
// every ancestor that tracks the same resource.
type Quota struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Resource   string          `json:"resource"`
	Limit      int64           `json:"limit"`
	Usage      int64           `json:"usage"`
	ZeroPolicy ZeroLimitPolicy `json:"zero_policy"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Admits reports whether consuming amount more units stays within the
// limit. A positive limit admits while usage + amount <= limit. A zero
// limit admits everything under ZeroUnlimited and nothing under
// ZeroBlocked.
func (q *Quota) Admits(amount int64) bool {
	if q.Limit > 0 {
		return q.Usage+amount <= q.Limit
	}
	return q.ZeroPolicy != ZeroBlocked
}
