package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Status is the recorded outcome of an infrastructure call.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	// StatusDegraded marks a call answered by a fallback result.
	StatusDegraded Status = "DEGRADED"
	// StatusCircuitOpen marks a call rejected by the circuit breaker.
	StatusCircuitOpen Status = "CIRCUIT_OPEN"
)

// Entry records the outcome of one provider call for tenant-level
// infrastructure visibility.
type Entry struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	Provider     string         `json:"provider"` // e.g. "email", "search"
	Action       string         `json:"action"`   // e.g. "send_email", "index_doc"
	Status       Status         `json:"status"`
	LatencyMS    int64          `json:"latency_ms"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewEntry builds an entry with a fresh ID and timestamp.
func NewEntry(tenantID uuid.UUID, provider, action string, status Status, latency time.Duration) Entry {
	return Entry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Provider:  provider,
		Action:    action,
		Status:    status,
		LatencyMS: latency.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
}
