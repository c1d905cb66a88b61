package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/breaker"
	"github.com/dmitrymomot/tenantkit/pkg/telemetry"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Runtime bundles the resilience machinery shared by every provider
// call: the circuit breaker, the telemetry sink, and the per-call
// deadline. One Runtime serves all tenants; breaker state is keyed
// per tenant and operation.
type Runtime struct {
	breaker     *breaker.Breaker
	recorder    telemetry.Recorder
	callTimeout time.Duration
	log         *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithCallTimeout sets the deadline applied to each provider call.
func WithCallTimeout(d time.Duration) RuntimeOption {
	return func(r *Runtime) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithRuntimeLogger sets the runtime logger.
func WithRuntimeLogger(log *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRuntime creates a runtime with a 30 second per-call deadline.
func NewRuntime(b *breaker.Breaker, rec telemetry.Recorder, opts ...RuntimeOption) *Runtime {
	if rec == nil {
		rec = telemetry.NewNoopRecorder()
	}
	r := &Runtime{
		breaker:     b,
		recorder:    rec,
		callTimeout: 30 * time.Second,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Call runs fn through the circuit breaker with the runtime deadline
// and records a telemetry entry for the outcome. The breaker key is
// derived from the tenant in ctx and "<provider>.<action>", so one
// tenant's failing backend never opens the circuit for another.
func Call[T any](ctx context.Context, rt *Runtime, providerName, action string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	t, _ := tenant.FromContext(ctx)

	slug := ""
	if t != nil {
		slug = t.Slug
	}
	key := breaker.Key(slug, providerName+"."+action)

	start := time.Now()
	err := rt.breaker.Do(ctx, key, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, rt.callTimeout)
		defer cancel()
		var ferr error
		result, ferr = fn(callCtx)
		if errors.Is(ferr, context.DeadlineExceeded) {
			ferr = errors.Join(ErrCallTimeout, ferr)
		}
		return ferr
	})
	latency := time.Since(start)

	rt.record(ctx, t, providerName, action, err, latency)
	return result, err
}

// CallDegraded runs fn like Call but converts any failure, including
// an open circuit, into the fallback value with a nil error. The
// telemetry entry is recorded as DEGRADED so the tenant can see the
// provider answered with a substitute result.
func CallDegraded[T any](ctx context.Context, rt *Runtime, providerName, action string, fallback T, fn func(ctx context.Context) (T, error)) T {
	var result T
	t, _ := tenant.FromContext(ctx)

	slug := ""
	if t != nil {
		slug = t.Slug
	}
	key := breaker.Key(slug, providerName+"."+action)

	start := time.Now()
	err := rt.breaker.Do(ctx, key, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, rt.callTimeout)
		defer cancel()
		var ferr error
		result, ferr = fn(callCtx)
		return ferr
	})
	latency := time.Since(start)

	if err == nil {
		rt.record(ctx, t, providerName, action, nil, latency)
		return result
	}

	e := telemetry.NewEntry(tenantIDOf(t), providerName, action, telemetry.StatusDegraded, latency)
	e.ErrorMessage = err.Error()
	if rerr := rt.recorder.Record(ctx, e); rerr != nil {
		rt.log.WarnContext(ctx, "telemetry record failed",
			slog.String("provider", providerName), slog.Any("error", rerr))
	}
	rt.log.WarnContext(ctx, "provider degraded, serving fallback",
		slog.String("provider", providerName),
		slog.String("action", action),
		slog.Any("error", err))
	return fallback
}

func (rt *Runtime) record(ctx context.Context, t *tenant.Tenant, providerName, action string, callErr error, latency time.Duration) {
	status := telemetry.StatusSuccess
	switch {
	case breaker.IsOpen(callErr):
		status = telemetry.StatusCircuitOpen
	case callErr != nil:
		status = telemetry.StatusFailure
	}

	e := telemetry.NewEntry(tenantIDOf(t), providerName, action, status, latency)
	if callErr != nil {
		e.ErrorMessage = callErr.Error()
	}
	if err := rt.recorder.Record(ctx, e); err != nil {
		rt.log.WarnContext(ctx, "telemetry record failed",
			slog.String("provider", providerName), slog.Any("error", err))
	}
}

func tenantIDOf(t *tenant.Tenant) uuid.UUID {
	if t == nil {
		return uuid.Nil
	}
	return t.ID
}
