package provider_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/breaker"
	"github.com/dmitrymomot/tenantkit/pkg/provider"
	"github.com/dmitrymomot/tenantkit/pkg/telemetry"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type captureRecorder struct {
	mu      sync.Mutex
	entries []telemetry.Entry
}

func (r *captureRecorder) Record(_ context.Context, e telemetry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *captureRecorder) last(t *testing.T) telemetry.Entry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

func newTenant(slug string) *tenant.Tenant {
	return &tenant.Tenant{ID: uuid.New(), Slug: slug, Name: slug, Active: true}
}

func tenantCtx(slug string) (context.Context, *tenant.Tenant) {
	t := newTenant(slug)
	return tenant.WithTenant(context.Background(), t), t
}

func newRuntime(rec telemetry.Recorder, opts ...provider.RuntimeOption) *provider.Runtime {
	b := breaker.New(breaker.NewMemoryStore(), breaker.WithThreshold(2), breaker.WithResetTimeout(time.Minute))
	return provider.NewRuntime(b, rec, opts...)
}

func TestCall(t *testing.T) {
	t.Parallel()

	t.Run("success records SUCCESS", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		ctx, org := tenantCtx("acme")

		result, err := provider.Call(ctx, rt, "email", "send_email", func(context.Context) (string, error) {
			return "msg-1", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "msg-1", result)

		e := rec.last(t)
		assert.Equal(t, telemetry.StatusSuccess, e.Status)
		assert.Equal(t, org.ID, e.TenantID)
		assert.Equal(t, "email", e.Provider)
		assert.Equal(t, "send_email", e.Action)
		assert.Empty(t, e.ErrorMessage)
	})

	t.Run("failure records FAILURE with the error message", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		ctx, _ := tenantCtx("acme")

		boom := errors.New("smtp unreachable")
		_, err := provider.Call(ctx, rt, "email", "send_email", func(context.Context) (string, error) {
			return "", boom
		})
		require.ErrorIs(t, err, boom)

		e := rec.last(t)
		assert.Equal(t, telemetry.StatusFailure, e.Status)
		assert.Contains(t, e.ErrorMessage, "smtp unreachable")
	})

	t.Run("slow call is cut off at the deadline", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec, provider.WithCallTimeout(20*time.Millisecond))
		ctx, _ := tenantCtx("acme")

		_, err := provider.Call(ctx, rt, "intelligence", "complete", func(callCtx context.Context) (string, error) {
			select {
			case <-callCtx.Done():
				return "", callCtx.Err()
			case <-time.After(time.Second):
				return "never", nil
			}
		})
		require.ErrorIs(t, err, provider.ErrCallTimeout)
		assert.Equal(t, telemetry.StatusFailure, rec.last(t).Status)
	})

	t.Run("open circuit records CIRCUIT_OPEN", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec) // threshold 2
		ctx, _ := tenantCtx("acme")

		boom := errors.New("down")
		for range 2 {
			_, err := provider.Call(ctx, rt, "search", "index_doc", func(context.Context) (struct{}, error) {
				return struct{}{}, boom
			})
			require.ErrorIs(t, err, boom)
		}

		called := false
		_, err := provider.Call(ctx, rt, "search", "index_doc", func(context.Context) (struct{}, error) {
			called = true
			return struct{}{}, nil
		})
		require.True(t, breaker.IsOpen(err))
		assert.False(t, called, "an open circuit must not execute the call")
		assert.Equal(t, telemetry.StatusCircuitOpen, rec.last(t).Status)
	})

	t.Run("breaker state is per tenant", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		acmeCtx, _ := tenantCtx("acme")
		globexCtx, _ := tenantCtx("globex")

		boom := errors.New("down")
		for range 2 {
			_, _ = provider.Call(acmeCtx, rt, "sms", "send_sms", func(context.Context) (struct{}, error) {
				return struct{}{}, boom
			})
		}
		_, err := provider.Call(acmeCtx, rt, "sms", "send_sms", func(context.Context) (struct{}, error) {
			return struct{}{}, nil
		})
		require.True(t, breaker.IsOpen(err))

		_, err = provider.Call(globexCtx, rt, "sms", "send_sms", func(context.Context) (struct{}, error) {
			return struct{}{}, nil
		})
		assert.NoError(t, err, "acme's open circuit must not affect globex")
	})

	t.Run("no tenant in context records nil tenant id", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)

		_, err := provider.Call(context.Background(), rt, "email", "send_email", func(context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, rec.last(t).TenantID)
	})
}

func TestCallDegraded(t *testing.T) {
	t.Parallel()

	t.Run("success passes the result through", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		ctx, _ := tenantCtx("acme")

		got := provider.CallDegraded(ctx, rt, "cache", "get", "fallback", func(context.Context) (string, error) {
			return "cached-value", nil
		})
		assert.Equal(t, "cached-value", got)
		assert.Equal(t, telemetry.StatusSuccess, rec.last(t).Status)
	})

	t.Run("failure serves the fallback and records DEGRADED", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		ctx, _ := tenantCtx("acme")

		got := provider.CallDegraded(ctx, rt, "search", "search", []provider.SearchHit{}, func(context.Context) ([]provider.SearchHit, error) {
			return nil, errors.New("cluster red")
		})
		assert.Empty(t, got)

		e := rec.last(t)
		assert.Equal(t, telemetry.StatusDegraded, e.Status)
		assert.Contains(t, e.ErrorMessage, "cluster red")
	})

	t.Run("open circuit serves the fallback", func(t *testing.T) {
		t.Parallel()

		rec := &captureRecorder{}
		rt := newRuntime(rec)
		ctx, _ := tenantCtx("acme")

		boom := errors.New("down")
		for range 2 {
			provider.CallDegraded(ctx, rt, "flags", "enabled", false, func(context.Context) (bool, error) {
				return false, boom
			})
		}

		called := false
		got := provider.CallDegraded(ctx, rt, "flags", "enabled", false, func(context.Context) (bool, error) {
			called = true
			return true, nil
		})
		assert.False(t, got)
		assert.False(t, called)
		assert.Equal(t, telemetry.StatusDegraded, rec.last(t).Status)
	})
}
