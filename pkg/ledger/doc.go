// Package ledger implements double-entry bookkeeping for per-tenant
// value accounts. Balances change only in the same atomic unit as an
// immutable entry write, under a per-account lock; a debit exceeding
// the balance is rejected before anything is written.
//
// The optional Aggregator trades immediate durability for throughput:
// it serves balance checks from a cached scalar, buffers entries in
// memory, and flushes them in batches. It is off by default and must
// not back reads that need the authoritative entry list.
package ledger
