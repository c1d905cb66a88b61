package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds breaker tuning with environment overrides.
type Config struct {
	Threshold    int           `env:"BREAKER_THRESHOLD" envDefault:"5"`      // Consecutive failures before tripping.
	ResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"1m"` // How long a tripped circuit stays open.
}

// Breaker guards calls to unreliable dependencies, keyed per
// (tenant, operation). After Threshold consecutive failures for a key
// the circuit trips and calls fail fast with *OpenError until
// ResetTimeout elapses; the next call is then let through speculatively
// and its outcome decides whether the circuit closes or re-arms.
type Breaker struct {
	store        Store
	threshold    int
	resetTimeout time.Duration
	log          *slog.Logger
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold overrides the consecutive-failure threshold.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithResetTimeout overrides how long a tripped circuit stays open.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithLogger sets the breaker logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Breaker) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a breaker over the given state store with the default
// threshold of 5 failures and reset timeout of one minute.
func New(store Store, opts ...Option) *Breaker {
	b := &Breaker{
		store:        store,
		threshold:    5,
		resetTimeout: time.Minute,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig creates a breaker from environment-derived config.
func NewFromConfig(store Store, cfg Config, opts ...Option) *Breaker {
	opts = append([]Option{WithThreshold(cfg.Threshold), WithResetTimeout(cfg.ResetTimeout)}, opts...)
	return New(store, opts...)
}

// Key builds the canonical breaker key for a tenant-scoped operation.
func Key(tenantSlug, operation string) string {
	if tenantSlug == "" {
		tenantSlug = "global"
	}
	return fmt.Sprintf("cb:%s:%s", tenantSlug, operation)
}

// Do executes fn through the circuit. When the circuit is open the call
// is rejected immediately with *OpenError, without invoking fn. A
// successful call resets the failure counter; a failing call increments
// it and trips the circuit at the threshold. If the state store itself
// is unavailable the breaker fails open: the call proceeds unguarded.
func (b *Breaker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	open, retryAfter, err := b.store.Tripped(ctx, key)
	if err != nil {
		b.log.WarnContext(ctx, "breaker state unavailable, failing open",
			slog.String("key", key), slog.Any("error", err))
	} else if open {
		return &OpenError{Key: key, RetryAfter: retryAfter}
	}

	if err := fn(ctx); err != nil {
		b.recordFailure(ctx, key, err)
		return err
	}

	if rerr := b.store.Reset(ctx, key); rerr != nil {
		b.log.WarnContext(ctx, "breaker reset failed",
			slog.String("key", key), slog.Any("error", rerr))
	}
	return nil
}

func (b *Breaker) recordFailure(ctx context.Context, key string, cause error) {
	// The counter outlives a single open window so a failing speculative
	// call after the window re-trips immediately.
	failures, err := b.store.Failure(ctx, key, 2*b.resetTimeout)
	if err != nil {
		b.log.WarnContext(ctx, "breaker failure count unavailable",
			slog.String("key", key), slog.Any("error", err))
		return
	}

	b.log.ErrorContext(ctx, "circuit failure recorded",
		slog.String("key", key),
		slog.Int("failures", failures),
		slog.Int("threshold", b.threshold),
		slog.Any("error", cause))

	if failures >= b.threshold {
		if err := b.store.Trip(ctx, key, b.resetTimeout); err != nil {
			b.log.WarnContext(ctx, "breaker trip failed",
				slog.String("key", key), slog.Any("error", err))
			return
		}
		b.log.ErrorContext(ctx, "circuit tripped",
			slog.String("key", key),
			slog.Duration("reset_timeout", b.resetTimeout))
	}
}

// ResetTimeout returns the configured open-window duration.
func (b *Breaker) ResetTimeout() time.Duration { return b.resetTimeout }

// Threshold returns the configured consecutive-failure threshold.
func (b *Breaker) Threshold() int { return b.threshold }
