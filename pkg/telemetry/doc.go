// Package telemetry captures the outcome of every provider call made
// through the resilient proxy: status, latency, and error detail, per
// tenant.
//
// Recording must never slow down or fail business operations, so the
// production path is the AsyncRecorder: entries are batched in a
// background worker and handed to a BatchWriter (Postgres COPY or
// MongoDB InsertMany). A full buffer degrades to a synchronous write
// rather than dropping entries.
package telemetry
