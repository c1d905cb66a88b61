package isolation

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Provision creates the dedicated schema for a DEDICATED tenant at
// onboarding. Idempotent: an existing schema is left untouched.
func (s *Switch) Provision(ctx context.Context, t *tenant.Tenant) error {
	if t.IsolationMode != tenant.IsolationDedicated {
		return nil
	}

	schema, err := SanitizeIdentifier(t.Slug)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return errors.Join(ErrProvisionFailed, err)
	}
	return nil
}

// Deprovision drops a tenant's dedicated schema and everything in it.
// Called at offboarding after data export; irreversible by design of
// the offboarding flow, idempotent at the database level.
func (s *Switch) Deprovision(ctx context.Context, t *tenant.Tenant) error {
	if t.IsolationMode != tenant.IsolationDedicated {
		return nil
	}

	schema, err := SanitizeIdentifier(t.Slug)
	if err != nil {
		return err
	}
	if schema == s.shared {
		return ErrInvalidIdentifier
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
		return errors.Join(ErrProvisionFailed, err)
	}
	return nil
}
