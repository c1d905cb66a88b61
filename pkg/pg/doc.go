// Package pg manages the Postgres connection pool and schema
// migrations backing the tenant, quota, ledger, and telemetry stores.
package pg
