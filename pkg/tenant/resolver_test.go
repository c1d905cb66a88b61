package tenant_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type countingDomainStore struct {
	calls   atomic.Int64
	tenants map[string]*tenant.Tenant
	err     error
}

func (s *countingDomainStore) FindActiveDomain(_ context.Context, host string) (*tenant.Tenant, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.tenants[host]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("positive result is cached", func(t *testing.T) {
		t.Parallel()

		acme := newTenant("acme")
		store := &countingDomainStore{tenants: map[string]*tenant.Tenant{"acme.example.com": acme}}
		r := tenant.NewResolver(store)
		defer r.Close()

		ctx := context.Background()
		for range 3 {
			got, err := r.Resolve(ctx, "acme.example.com")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, acme.ID, got.ID)
		}
		assert.Equal(t, int64(1), store.calls.Load(), "repeat lookups must hit the cache")
	})

	t.Run("miss is cached negatively", func(t *testing.T) {
		t.Parallel()

		store := &countingDomainStore{}
		r := tenant.NewResolver(store)
		defer r.Close()

		ctx := context.Background()
		for range 3 {
			got, err := r.Resolve(ctx, "unknown.example.com")
			require.NoError(t, err)
			assert.Nil(t, got)
		}
		assert.Equal(t, int64(1), store.calls.Load(), "repeat misses must hit the negative cache")
	})

	t.Run("host is normalized before lookup", func(t *testing.T) {
		t.Parallel()

		acme := newTenant("acme")
		store := &countingDomainStore{tenants: map[string]*tenant.Tenant{"acme.example.com": acme}}
		r := tenant.NewResolver(store)
		defer r.Close()

		ctx := context.Background()
		got, err := r.Resolve(ctx, "ACME.Example.COM:8443")
		require.NoError(t, err)
		require.NotNil(t, got)

		// The normalized form shares the cache entry.
		_, err = r.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), store.calls.Load())
	})

	t.Run("store errors are not cached", func(t *testing.T) {
		t.Parallel()

		store := &countingDomainStore{err: errors.New("connection refused")}
		r := tenant.NewResolver(store)
		defer r.Close()

		ctx := context.Background()
		_, err := r.Resolve(ctx, "acme.example.com")
		require.Error(t, err)
		_, err = r.Resolve(ctx, "acme.example.com")
		require.Error(t, err)
		assert.Equal(t, int64(2), store.calls.Load())
	})

	t.Run("invalidate forces a fresh lookup", func(t *testing.T) {
		t.Parallel()

		store := &countingDomainStore{tenants: map[string]*tenant.Tenant{"acme.example.com": newTenant("acme")}}
		r := tenant.NewResolver(store)
		defer r.Close()

		ctx := context.Background()
		_, err := r.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)

		r.Invalidate(ctx, "acme.example.com")

		_, err = r.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(2), store.calls.Load())
	})

	t.Run("empty host resolves to no tenant", func(t *testing.T) {
		t.Parallel()

		store := &countingDomainStore{}
		r := tenant.NewResolver(store)
		defer r.Close()

		got, err := r.Resolve(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int64(0), store.calls.Load())
	})
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Acme.Example.COM":       "acme.example.com",
		"acme.example.com:8080":  "acme.example.com",
		"  acme.example.com  ":   "acme.example.com",
		"ACME.EXAMPLE.COM:443":   "acme.example.com",
		"":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, tenant.NormalizeHost(in), "input %q", in)
	}
}
