// Package isolation switches the active data partition for a tenant's
// requests: the shared schema for logically isolated tenants, a
// dedicated schema for physically isolated ones.
//
// Partition identifiers are derived from tenant slugs through
// SanitizeIdentifier, which guarantees the value is safe to interpolate
// into schema-qualifying statements. Activation is connection-scoped;
// Acquire pairs every activation with a reset before the connection
// returns to the pool so partitions never leak between requests.
package isolation
