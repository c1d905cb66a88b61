package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists quota rows in Postgres. ConsumeChecked locks the
// affected rows with SELECT FOR UPDATE so concurrent consumers are
// serialized per (tenant, resource).
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed quota store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const quotaColumns = "id, tenant_id, resource, limit_value, current_usage, zero_policy, created_at, updated_at"

func scanQuota(row pgx.Row) (*Quota, error) {
	var q Quota
	err := row.Scan(&q.ID, &q.TenantID, &q.Resource, &q.Limit, &q.Usage, &q.ZeroPolicy, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuotaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("quota: scan row: %w", err)
	}
	return &q, nil
}

func (s *PGStore) Get(ctx context.Context, tenantID uuid.UUID, resource string) (*Quota, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+quotaColumns+" FROM quotas WHERE tenant_id = $1 AND resource = $2",
		tenantID, resource)
	return scanQuota(row)
}

func (s *PGStore) Save(ctx context.Context, q *Quota) error {
	id := q.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	policy := q.ZeroPolicy
	if policy == "" {
		policy = ZeroUnlimited
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quotas (id, tenant_id, resource, limit_value, current_usage, zero_policy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (tenant_id, resource) DO UPDATE SET
			limit_value = EXCLUDED.limit_value,
			current_usage = EXCLUDED.current_usage,
			zero_policy = EXCLUDED.zero_policy,
			updated_at = now()`,
		id, q.TenantID, q.Resource, q.Limit, q.Usage, policy)
	if err != nil {
		return fmt.Errorf("quota: save row: %w", err)
	}
	return nil
}

func (s *PGStore) AdjustUsage(ctx context.Context, tenantIDs []uuid.UUID, resource string, delta int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE quotas
		SET current_usage = current_usage + $1, updated_at = now()
		WHERE tenant_id = ANY($2) AND resource = $3`,
		delta, tenantIDs, resource)
	if err != nil {
		return fmt.Errorf("quota: adjust usage: %w", err)
	}
	return nil
}

func (s *PGStore) ConsumeChecked(ctx context.Context, tenantIDs []uuid.UUID, resource string, amount int64) (*Quota, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("quota: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Deterministic lock order prevents deadlocks between overlapping
	// ancestor chains.
	rows, err := tx.Query(ctx,
		"SELECT "+quotaColumns+` FROM quotas
		WHERE tenant_id = ANY($1) AND resource = $2
		ORDER BY tenant_id
		FOR UPDATE`,
		tenantIDs, resource)
	if err != nil {
		return nil, fmt.Errorf("quota: lock rows: %w", err)
	}

	var locked []*Quota
	for rows.Next() {
		q, scanErr := scanQuota(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		locked = append(locked, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quota: lock rows: %w", err)
	}

	for _, q := range locked {
		if !q.Admits(amount) {
			return q, nil
		}
	}

	if len(locked) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE quotas
			SET current_usage = current_usage + $1, updated_at = now()
			WHERE tenant_id = ANY($2) AND resource = $3`,
			amount, tenantIDs, resource); err != nil {
			return nil, fmt.Errorf("quota: apply usage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("quota: commit: %w", err)
	}
	return nil, nil
}
