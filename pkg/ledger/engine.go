package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Transaction describes one requested value change.
type Transaction struct {
	AccountType AccountType
	Type        EntryType
	Amount      decimal.Decimal
	Description string
	ReferenceID string
	Metadata    map[string]any
}

func (t Transaction) validate() error {
	if t.Type != EntryCredit && t.Type != EntryDebit {
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, t.Type)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, t.Amount)
	}
	return nil
}

// Engine is the double-entry bookkeeping API. Every mutation runs
// under the store's per-account lock; a rejected debit leaves no
// trace, neither an entry nor a balance change.
type Engine struct {
	store Store
	log   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger.
func WithEngineLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a ledger engine over the given store.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AccountName is the default display name for an auto-created account.
func AccountName(slug string, accountType AccountType) string {
	name := strings.ToLower(string(accountType))
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return slug + " " + name
}

// ProcessTransaction applies a debit or credit to the tenant's account
// of the given type, creating the account on first use. The entry
// write and the balance update happen in one atomic unit under the
// account lock. A debit exceeding the balance is rejected with
// *InsufficientFundsError and writes nothing.
func (e *Engine) ProcessTransaction(ctx context.Context, t *tenant.Tenant, txn Transaction) (*Entry, decimal.Decimal, error) {
	if err := txn.validate(); err != nil {
		return nil, decimal.Zero, err
	}

	var entry *Entry
	acc, err := e.store.Mutate(ctx, t.ID, txn.AccountType, AccountName(t.Slug, txn.AccountType), func(acc *Account) (*Entry, error) {
		if txn.Type == EntryDebit && acc.Balance.LessThan(txn.Amount) {
			return nil, &InsufficientFundsError{
				AccountType: txn.AccountType,
				Required:    txn.Amount,
				Available:   acc.Balance,
			}
		}

		entry = &Entry{
			Type:        txn.Type,
			Amount:      txn.Amount,
			Description: txn.Description,
			ReferenceID: txn.ReferenceID,
			Metadata:    txn.Metadata,
		}
		acc.Balance = acc.Balance.Add(entry.Delta())
		return entry, nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	e.log.InfoContext(ctx, "ledger transaction processed",
		slog.String("tenant", t.Slug),
		slog.String("account_type", string(txn.AccountType)),
		slog.String("entry_type", string(txn.Type)),
		slog.String("amount", txn.Amount.String()),
		slog.String("balance", acc.Balance.String()))
	return entry, acc.Balance, nil
}

// GetBalance returns the tenant's current balance for an account type.
// Accounts never touched read as zero. The read is a snapshot and does
// not lock the row.
func (e *Engine) GetBalance(ctx context.Context, t *tenant.Tenant, accountType AccountType) (decimal.Decimal, error) {
	acc, err := e.store.GetAccount(ctx, t.ID, accountType)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// ListEntries returns the authoritative entry history for the tenant's
// account, newest first. Accounts never touched return an empty list.
func (e *Engine) ListEntries(ctx context.Context, t *tenant.Tenant, accountType AccountType, limit, offset int) ([]Entry, error) {
	acc, err := e.store.GetAccount(ctx, t.ID, accountType)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return []Entry{}, nil
		}
		return nil, err
	}
	return e.store.ListEntries(ctx, acc.ID, limit, offset)
}
