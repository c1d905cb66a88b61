package breaker

import (
	"context"
	"time"
)

// Store persists breaker state. Every worker serving a tenant must
// observe the same state, so production deployments use the Redis
// store; the memory store suits tests and single-process setups.
//
// OPEN circuits are represented by an expiring marker: once the marker
// lapses, the circuit is implicitly half-open and the next call is let
// through speculatively. No distinct half-open state is persisted.
type Store interface {
	// Tripped reports whether the circuit is open and, if so, how long
	// until the next speculative call is allowed.
	Tripped(ctx context.Context, key string) (bool, time.Duration, error)

	// Failure atomically increments the consecutive-failure counter and
	// returns the new count. The counter expires after ttl so stale
	// failures do not trip a recovered circuit.
	Failure(ctx context.Context, key string, ttl time.Duration) (int, error)

	// Trip opens the circuit for the given duration.
	Trip(ctx context.Context, key string, d time.Duration) error

	// Reset clears the failure counter and closes the circuit.
	Reset(ctx context.Context, key string) error
}
