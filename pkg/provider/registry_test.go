package provider_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/provider"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type fakeEmail struct {
	token string
	sent  atomic.Int64
}

func (f *fakeEmail) SendEmail(context.Context, string, string, string) error {
	f.sent.Add(1)
	return nil
}

// emailFactory registers a factory that records how often it was
// invoked and which settings it received.
func emailFactory(builds *atomic.Int64) provider.Factory {
	return func(s provider.Settings) (any, error) {
		builds.Add(1)
		return &fakeEmail{token: s.String("server_token", "")}, nil
	}
}

func withProviderConfig(slug, cap, backend string, settings map[string]any) (context.Context, *tenant.Tenant) {
	t := newTenant(slug)
	t.Config = map[string]any{
		"providers": map[string]any{
			cap: map[string]any{
				"backend":  backend,
				"settings": settings,
			},
		},
	}
	return tenant.WithTenant(context.Background(), t), t
}

func TestRegistry_Resolution(t *testing.T) {
	t.Parallel()

	t.Run("tenant config wins over deployment defaults", func(t *testing.T) {
		t.Parallel()

		var tenantBuilds, defaultBuilds atomic.Int64
		r := provider.NewRegistry(newRuntime(nil), &provider.Defaults{
			Providers: map[provider.Capability]provider.BackendConfig{
				provider.CapabilityEmail: {Backend: "default-smtp"},
			},
		})
		r.Register(provider.CapabilityEmail, "postmark", emailFactory(&tenantBuilds))
		r.Register(provider.CapabilityEmail, "default-smtp", emailFactory(&defaultBuilds))

		ctx, _ := withProviderConfig("acme", "email", "postmark", map[string]any{"server_token": "tok"})
		sender, err := r.Email(ctx)
		require.NoError(t, err)
		require.NotNil(t, sender)
		assert.Equal(t, int64(1), tenantBuilds.Load())
		assert.Equal(t, int64(0), defaultBuilds.Load())
	})

	t.Run("falls back to deployment defaults", func(t *testing.T) {
		t.Parallel()

		var builds atomic.Int64
		r := provider.NewRegistry(newRuntime(nil), &provider.Defaults{
			Providers: map[provider.Capability]provider.BackendConfig{
				provider.CapabilityEmail: {Backend: "postmark", Settings: provider.Settings{"server_token": "tok"}},
			},
		})
		r.Register(provider.CapabilityEmail, "postmark", emailFactory(&builds))

		// Tenant with no provider config of its own.
		ctx := tenant.WithTenant(context.Background(), newTenant("acme"))
		_, err := r.Email(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), builds.Load())
	})

	t.Run("unconfigured capability", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), nil)
		ctx := tenant.WithTenant(context.Background(), newTenant("acme"))

		_, err := r.Email(ctx)
		assert.ErrorIs(t, err, provider.ErrProviderNotConfigured)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), nil)
		ctx, _ := withProviderConfig("acme", "email", "carrier-pigeon", nil)

		_, err := r.Email(ctx)
		assert.ErrorIs(t, err, provider.ErrUnknownBackend)
	})

	t.Run("factory errors surface as invalid config", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), nil)
		r.Register(provider.CapabilityEmail, "postmark", func(provider.Settings) (any, error) {
			return nil, assert.AnError
		})
		ctx, _ := withProviderConfig("acme", "email", "postmark", nil)

		_, err := r.Email(ctx)
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})
}

func TestRegistry_Cache(t *testing.T) {
	t.Parallel()

	t.Run("instances are cached per tenant and backend", func(t *testing.T) {
		t.Parallel()

		var builds atomic.Int64
		r := provider.NewRegistry(newRuntime(nil), nil)
		r.Register(provider.CapabilityEmail, "postmark", emailFactory(&builds))

		ctx, _ := withProviderConfig("acme", "email", "postmark", nil)
		for range 3 {
			_, err := r.Email(ctx)
			require.NoError(t, err)
		}
		assert.Equal(t, int64(1), builds.Load(), "repeated resolutions reuse the cached instance")
	})

	t.Run("invalidate rebuilds after a config change", func(t *testing.T) {
		t.Parallel()

		var builds atomic.Int64
		r := provider.NewRegistry(newRuntime(nil), nil)
		r.Register(provider.CapabilityEmail, "postmark", emailFactory(&builds))

		ctx, org := withProviderConfig("acme", "email", "postmark", nil)
		_, err := r.Email(ctx)
		require.NoError(t, err)

		r.Invalidate(org.ID.String())

		_, err = r.Email(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), builds.Load())
	})
}

func TestRegistry_Sandbox(t *testing.T) {
	t.Parallel()

	t.Run("tenant flag forces the sandbox backend", func(t *testing.T) {
		t.Parallel()

		var builds atomic.Int64
		r := provider.NewRegistry(newRuntime(nil), nil)
		r.Register(provider.CapabilityEmail, "postmark", emailFactory(&builds))

		org := newTenant("acme")
		org.Config = map[string]any{
			"sandbox": true,
			"providers": map[string]any{
				"email": map[string]any{"backend": "postmark"},
			},
		}
		ctx := tenant.WithTenant(context.Background(), org)

		sender, err := r.Email(ctx)
		require.NoError(t, err)
		require.NoError(t, sender.SendEmail(ctx, "a@example.com", "hi", "body"))
		assert.Equal(t, int64(0), builds.Load(), "sandbox mode must not build the real backend")
	})

	t.Run("deployment sandbox default applies", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), &provider.Defaults{Sandbox: true})
		assert.True(t, r.Sandbox(newTenant("acme")))
	})

	t.Run("tenant flag overrides the deployment default", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), &provider.Defaults{Sandbox: true})
		org := newTenant("acme")
		org.Config = map[string]any{"sandbox": false}
		assert.False(t, r.Sandbox(org))
	})

	t.Run("sandbox covers every capability", func(t *testing.T) {
		t.Parallel()

		r := provider.NewRegistry(newRuntime(nil), &provider.Defaults{Sandbox: true})
		ctx := tenant.WithTenant(context.Background(), newTenant("acme"))

		_, err := r.Email(ctx)
		assert.NoError(t, err)
		_, err = r.SMS(ctx)
		assert.NoError(t, err)
		_, err = r.Storage(ctx)
		assert.NoError(t, err)
		_, err = r.Search(ctx)
		assert.NoError(t, err)
		_, err = r.Identity(ctx)
		assert.NoError(t, err)
		_, err = r.Intelligence(ctx)
		assert.NoError(t, err)
		_, err = r.Cache(ctx)
		assert.NoError(t, err)
		_, err = r.Queue(ctx)
		assert.NoError(t, err)
		_, err = r.Audit(ctx)
		assert.NoError(t, err)
		_, err = r.Flags(ctx)
		assert.NoError(t, err)
	})
}
