package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGStore persists the ledger in Postgres. Account mutations lock the
// row with SELECT FOR UPDATE so concurrent writers to the same account
// are serialized.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed ledger store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const accountColumns = "id, tenant_id, name, account_type, balance, updated_at"

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.TenantID, &acc.Name, &acc.Type, &acc.Balance, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: scan account: %w", err)
	}
	return &acc, nil
}

// lockAccount loads the account row FOR UPDATE inside tx, inserting it
// first when absent. The upsert is concurrency-safe: two racing
// creators both end up locking the single surviving row.
func lockAccount(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, accountType AccountType, name string) (*Account, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_accounts (id, tenant_id, name, account_type, balance, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT (tenant_id, account_type) DO NOTHING`,
		uuid.New(), tenantID, name, accountType); err != nil {
		return nil, fmt.Errorf("ledger: ensure account: %w", err)
	}

	row := tx.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM ledger_accounts WHERE tenant_id = $1 AND account_type = $2 FOR UPDATE",
		tenantID, accountType)
	return scanAccount(row)
}

func insertEntry(ctx context.Context, tx pgx.Tx, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount, description, reference_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))`,
		e.ID, e.AccountID, e.Type, e.Amount, e.Description, e.ReferenceID, metadata, nullableTime(e))
	if err != nil {
		return fmt.Errorf("ledger: insert entry: %w", err)
	}
	return nil
}

func nullableTime(e *Entry) any {
	if e.CreatedAt.IsZero() {
		return nil
	}
	return e.CreatedAt
}

func updateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	if _, err := tx.Exec(ctx,
		"UPDATE ledger_accounts SET balance = $1, updated_at = now() WHERE id = $2",
		balance, accountID); err != nil {
		return fmt.Errorf("ledger: update balance: %w", err)
	}
	return nil
}

func (s *PGStore) Mutate(ctx context.Context, tenantID uuid.UUID, accountType AccountType, name string, fn func(acc *Account) (*Entry, error)) (*Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	acc, err := lockAccount(ctx, tx, tenantID, accountType, name)
	if err != nil {
		return nil, err
	}

	entry, err := fn(acc)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		entry.AccountID = acc.ID
		if err := insertEntry(ctx, tx, entry); err != nil {
			return nil, err
		}
		if err := updateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ledger: commit: %w", err)
	}
	return acc, nil
}

func (s *PGStore) AppendBatch(ctx context.Context, tenantID uuid.UUID, accountType AccountType, name string, entries []Entry) (*Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	acc, err := lockAccount(ctx, tx, tenantID, accountType, name)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].AccountID = acc.ID
		if err := insertEntry(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
		acc.Balance = acc.Balance.Add(entries[i].Delta())
	}
	if err := updateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ledger: commit: %w", err)
	}
	return acc, nil
}

func (s *PGStore) GetAccount(ctx context.Context, tenantID uuid.UUID, accountType AccountType) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM ledger_accounts WHERE tenant_id = $1 AND account_type = $2",
		tenantID, accountType)
	return scanAccount(row)
}

func (s *PGStore) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, entry_type, amount, description, reference_id, metadata, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger: list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Type, &e.Amount, &e.Description, &e.ReferenceID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list entries: %w", err)
	}
	return entries, nil
}
