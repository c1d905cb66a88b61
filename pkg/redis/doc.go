// Package redis manages the shared Redis connection used for circuit
// breaker state, domain resolution caching, and tenant task queues.
package redis
