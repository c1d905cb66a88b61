package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// AggregatorOptions configures the fast-path batching behavior.
type AggregatorOptions struct {
	BatchSize     int           // Pending entries per account that trigger an early flush
	FlushInterval time.Duration // Max time an entry stays buffered before a flush
	FlushTimeout  time.Duration // Per-flush storage timeout
}

// Aggregator is the opt-in high-throughput ledger path. Process
// adjusts a cached balance and buffers the entry in memory, returning
// without touching durable storage; a background flusher drains the
// buffer in batches through Store.AppendBatch.
//
// Reconciliation rule: the durable balance is only ever advanced by
// applying flushed entries inside the flush transaction. The cached
// scalar is never written durably; after each flush the cache is
// rebased as durable balance plus the deltas still buffered. Reads
// needing the authoritative entry list must use the Engine, not this
// path: buffered entries are invisible until flushed.
type Aggregator struct {
	store Store
	opts  AggregatorOptions
	log   *slog.Logger

	mu       sync.Mutex
	accounts map[accountKey]*aggAccount
	closed   bool

	flushCh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

type aggAccount struct {
	name        string
	loaded      bool
	durableBase decimal.Decimal
	pendingSum  decimal.Decimal
	pending     []Entry
}

// NewAggregator creates and starts a fast-path aggregator over the
// given store.
func NewAggregator(store Store, opts AggregatorOptions, log *slog.Logger) *Aggregator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	a := &Aggregator{
		store:    store,
		opts:     opts,
		log:      log,
		accounts: make(map[accountKey]*aggAccount),
		flushCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	a.wg.Add(1)
	go a.worker()
	return a
}

// Process applies a transaction to the cached balance and buffers the
// entry for asynchronous flushing. Insufficient-funds checks run
// against the cached balance, which includes all buffered entries, so
// the fast path cannot admit a debit the durable state would reject
// once flushed. Returns the cached balance after the transaction.
func (a *Aggregator) Process(ctx context.Context, t *tenant.Tenant, txn Transaction) (decimal.Decimal, error) {
	if err := txn.validate(); err != nil {
		return decimal.Zero, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return decimal.Zero, ErrAggregatorClosed
	}

	key := accountKey{t.ID, txn.AccountType}
	acc, ok := a.accounts[key]
	if !ok {
		acc = &aggAccount{name: AccountName(t.Slug, txn.AccountType)}
		a.accounts[key] = acc
	}
	if !acc.loaded {
		durable, err := a.store.GetAccount(ctx, t.ID, txn.AccountType)
		switch {
		case err == nil:
			acc.durableBase = durable.Balance
		case errors.Is(err, ErrAccountNotFound):
			acc.durableBase = decimal.Zero
		default:
			return decimal.Zero, err
		}
		acc.loaded = true
	}

	cached := acc.durableBase.Add(acc.pendingSum)
	if txn.Type == EntryDebit && cached.LessThan(txn.Amount) {
		return decimal.Zero, &InsufficientFundsError{
			AccountType: txn.AccountType,
			Required:    txn.Amount,
			Available:   cached,
		}
	}

	entry := Entry{
		ID:          uuid.New(),
		Type:        txn.Type,
		Amount:      txn.Amount,
		Description: txn.Description,
		ReferenceID: txn.ReferenceID,
		Metadata:    txn.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	acc.pending = append(acc.pending, entry)
	acc.pendingSum = acc.pendingSum.Add(entry.Delta())

	if len(acc.pending) >= a.opts.BatchSize {
		select {
		case a.flushCh <- struct{}{}:
		default:
		}
	}

	return acc.durableBase.Add(acc.pendingSum), nil
}

// CachedBalance returns the fast-path view of the balance: the last
// known durable balance plus all buffered entries. Accounts never
// touched through this aggregator read as zero.
func (a *Aggregator) CachedBalance(tenantID uuid.UUID, accountType AccountType) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountKey{tenantID, accountType}]
	if !ok {
		return decimal.Zero
	}
	return acc.durableBase.Add(acc.pendingSum)
}

func (a *Aggregator) worker() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.flushAll()
		case <-a.flushCh:
			a.flushAll()
		case <-a.done:
			a.flushAll()
			return
		}
	}
}

// flushAll drains every account's buffer. Flushing runs on a
// background context so client cancellations never lose entries. When
// a flush fails the entries are requeued at the front of the buffer
// and retried on the next tick; the cached balance is unaffected
// because it already includes them.
func (a *Aggregator) flushAll() {
	a.mu.Lock()
	type job struct {
		key     accountKey
		name    string
		entries []Entry
	}
	jobs := make([]job, 0, len(a.accounts))
	for key, acc := range a.accounts {
		if len(acc.pending) == 0 {
			continue
		}
		jobs = append(jobs, job{key: key, name: acc.name, entries: acc.pending})
		acc.pending = nil
	}
	a.mu.Unlock()

	for _, j := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.FlushTimeout)
		durable, err := a.store.AppendBatch(ctx, j.key.tenantID, j.key.accountType, j.name, j.entries)
		cancel()

		a.mu.Lock()
		acc := a.accounts[j.key]
		if err != nil {
			acc.pending = append(j.entries, acc.pending...)
			a.mu.Unlock()
			a.log.Error("ledger flush failed, entries requeued",
				slog.String("tenant_id", j.key.tenantID.String()),
				slog.String("account_type", string(j.key.accountType)),
				slog.Int("entries", len(j.entries)),
				slog.Any("error", err))
			continue
		}

		var flushed decimal.Decimal
		for i := range j.entries {
			flushed = flushed.Add(j.entries[i].Delta())
		}
		acc.durableBase = durable.Balance
		acc.pendingSum = acc.pendingSum.Sub(flushed)
		a.mu.Unlock()
	}
}

// Flush synchronously drains all buffered entries.
func (a *Aggregator) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.flushAll()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new transactions, flushes the remaining
// buffer, and waits for the worker to exit.
func (a *Aggregator) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	close(a.done)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
