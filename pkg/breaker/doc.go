// Package breaker implements a distributed circuit breaker keyed per
// (tenant, operation), protecting the platform from cascading failures
// when an external provider degrades.
//
// The state machine has two persisted states. CLOSED circuits execute
// calls normally, counting consecutive failures; reaching the threshold
// trips the circuit. OPEN circuits reject calls immediately with
// *OpenError carrying a retry-after duration. There is no persisted
// half-open state: the open marker simply expires after the reset
// timeout, the next call runs speculatively, and its outcome decides
// between closing and re-arming.
//
// Breaker state must be observed consistently across all workers
// serving a tenant, so production deployments back the breaker with
// the Redis store. State-store outages fail open: an unreachable
// breaker never blocks traffic on its own.
package breaker
