package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements DomainStore and Store on a Postgres pool. The
// tenants and domains tables live in the shared schema; see the goose
// migrations under internal/db/migrations.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed tenant store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const tenantColumns = `t.id, t.slug, t.name, t.isolation_mode, t.active, t.maintenance, t.parent_id, t.config, t.created_at, t.updated_at`

// FindActiveDomain returns the tenant owning an ACTIVE domain matching
// the host, or ErrTenantNotFound.
func (s *PGStore) FindActiveDomain(ctx context.Context, host string) (*Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM domains d
		JOIN tenants t ON t.id = d.tenant_id
		WHERE d.host = $1 AND d.status = 'ACTIVE'`, host)
	return scanTenant(row)
}

// GetByID loads a tenant by primary key, or ErrTenantNotFound.
func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		WHERE t.id = $1`, id)
	return scanTenant(row)
}

// GetBySlug loads a tenant by its unique slug, or ErrTenantNotFound.
func (s *PGStore) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		WHERE t.slug = $1`, slug)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.IsolationMode, &t.Active,
		&t.Maintenance, &t.ParentID, &t.Config, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
