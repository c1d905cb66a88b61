package provider

import (
	"context"
	"time"
)

// Capability names one kind of external infrastructure a tenant
// consumes. Each capability has a narrow method contract and one
// concrete implementation per backend.
type Capability string

const (
	CapabilityEmail        Capability = "email"
	CapabilitySMS          Capability = "sms"
	CapabilityStorage      Capability = "storage"
	CapabilitySearch       Capability = "search"
	CapabilityIdentity     Capability = "identity"
	CapabilityIntelligence Capability = "intelligence"
	CapabilityCache        Capability = "cache"
	CapabilityQueue        Capability = "queue"
	CapabilityAudit        Capability = "audit"
	CapabilityFlags        Capability = "flags"
)

// EmailSender delivers transactional email for a tenant.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// SMSSender delivers text messages for a tenant.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient, message string) error
}

// BlobStorage stores tenant files, namespaced per tenant by the backend.
type BlobStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// SearchHit is one result from a tenant search index.
type SearchHit struct {
	ID     string         `json:"id"`
	Score  float64        `json:"score"`
	Source map[string]any `json:"source"`
}

// SearchIndex indexes and queries tenant documents. Search is
// fallback-tolerant: a degraded index answers with empty results
// rather than failing the page.
type SearchIndex interface {
	IndexDocument(ctx context.Context, id string, doc map[string]any) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// Identity is the externally asserted principal returned by an
// identity provider exchange.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// IdentityProvider performs the authorization-code flow against a
// tenant's configured SSO backend.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Intelligence answers completion prompts with the tenant's AI backend.
type Intelligence interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// KV is the tenant-scoped cache contract. Implementations prefix every
// key with the tenant so cached values never cross tenants.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Queue dispatches background tasks onto the tenant's queue.
type Queue interface {
	Enqueue(ctx context.Context, task string, payload any) (taskID string, err error)
}

// AuditSink records tenant-visible change events for compliance.
type AuditSink interface {
	RecordChange(ctx context.Context, action, object, objectID string, changes map[string]any) error
}

// FlagSource evaluates feature flags for the tenant.
type FlagSource interface {
	Enabled(ctx context.Context, flag string) (bool, error)
}
