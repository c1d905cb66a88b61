package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Store persists ledger accounts and entries. Mutating operations run
// under a per-account lock: implementations must serialize concurrent
// Mutate and AppendBatch calls against the same (tenant, account type)
// pair, and must apply the entry write and the balance change as one
// atomic unit.
type Store interface {
	// Mutate acquires the account for (tenantID, accountType) under a
	// lock, creating it with the given name and a zero balance when
	// absent, and invokes fn with the current row. When fn returns an
	// entry, the entry and the updated balance are persisted
	// atomically; when fn returns an error, nothing is written and
	// the error is surfaced unchanged. The returned account reflects
	// the state after the mutation.
	Mutate(ctx context.Context, tenantID uuid.UUID, accountType AccountType, name string, fn func(acc *Account) (*Entry, error)) (*Account, error)

	// AppendBatch writes a batch of entries against the account and
	// advances the balance by the sum of their deltas, all in one
	// atomic unit. Used by the fast-path flusher; the durable balance
	// is only ever advanced by applying entries, never overwritten
	// with an externally computed value.
	AppendBatch(ctx context.Context, tenantID uuid.UUID, accountType AccountType, name string, entries []Entry) (*Account, error)

	// GetAccount returns a snapshot of the account without locking,
	// or ErrAccountNotFound.
	GetAccount(ctx context.Context, tenantID uuid.UUID, accountType AccountType) (*Account, error)

	// ListEntries returns the account's entries, newest first.
	ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error)
}
