package quota

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrQuotaExceeded is the sentinel matched by errors.Is against
	// *ExceededError.
	ErrQuotaExceeded = errors.New("quota.errors.exceeded")
	// ErrQuotaNotFound is returned when no quota row exists for a
	// (tenant, resource) pair.
	ErrQuotaNotFound = errors.New("quota.errors.not_found")
)

// ExceededError reports which level of the tenant hierarchy rejected a
// consumption request.
type ExceededError struct {
	Resource   string
	TenantID   uuid.UUID
	TenantName string
	Self       bool // false when an ancestor's quota blocked the request
	Limit      int64
	Usage      int64
	Requested  int64
}

func (e *ExceededError) Error() string {
	level := "organization"
	if !e.Self {
		level = fmt.Sprintf("parent organization %q", e.TenantName)
	}
	return fmt.Sprintf("quota exceeded for %q at %s level: limit %d, usage %d, requested %d",
		e.Resource, level, e.Limit, e.Usage, e.Requested)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *ExceededError) Is(target error) bool { return target == ErrQuotaExceeded }
