package quota

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Config holds quota engine tuning with environment overrides.
type Config struct {
	// Strict routes every consumption through the atomic
	// check-and-increment path instead of the two-step
	// Check-then-Increment sequence.
	Strict bool `env:"QUOTA_STRICT_MODE" envDefault:"true"`
}

// Engine enforces hierarchical usage limits. A consumption request is
// admitted only when the tenant and every ancestor tracking the
// resource stay within their limits; usage is then rolled up the
// whole chain in one multi-row update.
type Engine struct {
	quotas  Store
	tenants tenant.Store
	strict  bool
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict toggles the atomic check-and-increment path.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a quota engine. Strict mode is on by default.
func NewEngine(quotas Store, tenants tenant.Store, opts ...Option) *Engine {
	e := &Engine{
		quotas:  quotas,
		tenants: tenants,
		strict:  true,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineFromConfig creates an engine from environment-derived config.
func NewEngineFromConfig(quotas Store, tenants tenant.Store, cfg Config, opts ...Option) *Engine {
	opts = append([]Option{WithStrict(cfg.Strict)}, opts...)
	return NewEngine(quotas, tenants, opts...)
}

// chain resolves the tenant's ancestor chain, self first.
func (e *Engine) chain(ctx context.Context, t *tenant.Tenant) ([]*tenant.Tenant, error) {
	return tenant.Ancestors(ctx, e.tenants, t)
}

func chainIDs(chain []*tenant.Tenant) []uuid.UUID {
	ids := make([]uuid.UUID, len(chain))
	for i, t := range chain {
		ids[i] = t.ID
	}
	return ids
}

// Check verifies that the tenant and all its ancestors admit consuming
// increment more units of resource. Levels without a quota row are
// unlimited. Returns *ExceededError naming the blocking level.
//
// Check followed by Increment is not atomic as two calls; concurrent
// consumers can overshoot between them. Resources needing hard limits
// go through Consume instead.
func (e *Engine) Check(ctx context.Context, t *tenant.Tenant, resource string, increment int64) error {
	chain, err := e.chain(ctx, t)
	if err != nil {
		return err
	}

	for _, org := range chain {
		q, err := e.quotas.Get(ctx, org.ID, resource)
		if errors.Is(err, ErrQuotaNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !q.Admits(increment) {
			return &ExceededError{
				Resource:   resource,
				TenantID:   org.ID,
				TenantName: org.Name,
				Self:       org.ID == t.ID,
				Limit:      q.Limit,
				Usage:      q.Usage,
				Requested:  increment,
			}
		}
	}
	return nil
}

// Increment adds amount to the usage counter of the tenant and every
// ancestor tracking the resource, in one atomic multi-row update.
func (e *Engine) Increment(ctx context.Context, t *tenant.Tenant, resource string, amount int64) error {
	chain, err := e.chain(ctx, t)
	if err != nil {
		return err
	}
	return e.quotas.AdjustUsage(ctx, chainIDs(chain), resource, amount)
}

// Decrement subtracts amount from the usage counters, e.g. when a
// quota-tracked resource is deleted. Best effort: missing rows are
// skipped and store failures are logged, never surfaced, so deletion
// flows cannot be blocked by accounting.
func (e *Engine) Decrement(ctx context.Context, t *tenant.Tenant, resource string, amount int64) {
	chain, err := e.chain(ctx, t)
	if err != nil {
		e.log.WarnContext(ctx, "quota decrement skipped",
			slog.String("resource", resource), slog.Any("error", err))
		return
	}
	if err := e.quotas.AdjustUsage(ctx, chainIDs(chain), resource, -amount); err != nil {
		e.log.WarnContext(ctx, "quota decrement failed",
			slog.String("resource", resource), slog.Any("error", err))
	}
}

// Consume admits and records a consumption in one call. In strict mode
// the limit check and the usage increment happen inside one atomic
// store operation, so concurrent consumers cannot jointly overshoot a
// limit. In non-strict mode it degrades to Check followed by
// Increment.
func (e *Engine) Consume(ctx context.Context, t *tenant.Tenant, resource string, amount int64) error {
	chain, err := e.chain(ctx, t)
	if err != nil {
		return err
	}
	ids := chainIDs(chain)

	if !e.strict {
		if err := e.Check(ctx, t, resource, amount); err != nil {
			return err
		}
		return e.quotas.AdjustUsage(ctx, ids, resource, amount)
	}

	blocked, err := e.quotas.ConsumeChecked(ctx, ids, resource, amount)
	if err != nil {
		return err
	}
	if blocked != nil {
		name := ""
		for _, org := range chain {
			if org.ID == blocked.TenantID {
				name = org.Name
				break
			}
		}
		return &ExceededError{
			Resource:   resource,
			TenantID:   blocked.TenantID,
			TenantName: name,
			Self:       blocked.TenantID == t.ID,
			Limit:      blocked.Limit,
			Usage:      blocked.Usage,
			Requested:  amount,
		}
	}
	return nil
}
