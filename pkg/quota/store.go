package quota

import (
	"context"

	"github.com/google/uuid"
)

// Store persists quota rows. Implementations must make AdjustUsage
// and ConsumeChecked atomic across all affected rows: concurrent
// callers may interleave between calls but never observe a partially
// applied multi-row update.
type Store interface {
	// Get returns the quota for a (tenant, resource) pair, or
	// ErrQuotaNotFound.
	Get(ctx context.Context, tenantID uuid.UUID, resource string) (*Quota, error)

	// Save creates or replaces a quota row.
	Save(ctx context.Context, q *Quota) error

	// AdjustUsage adds delta to the usage counter of every existing
	// quota row matching (tenantID in tenantIDs, resource) in one
	// atomic update. Tenants without a row are skipped silently.
	AdjustUsage(ctx context.Context, tenantIDs []uuid.UUID, resource string, delta int64) error

	// ConsumeChecked atomically verifies and applies a consumption of
	// amount units against every matching quota row. When some row
	// does not admit the amount, no row is changed and that row is
	// returned; otherwise all matching rows are incremented and the
	// result is nil. The check and the increment happen under one
	// lock so concurrent consumers cannot jointly overshoot a limit.
	ConsumeChecked(ctx context.Context, tenantIDs []uuid.UUID, resource string, amount int64) (*Quota, error)
}
