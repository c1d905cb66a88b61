package tenant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func TestRunInScope(t *testing.T) {
	t.Parallel()

	t.Run("installs tenant for the duration of fn", func(t *testing.T) {
		t.Parallel()

		org := newTenant("acme")
		err := tenant.RunInScope(context.Background(), org, func(ctx context.Context) error {
			got, ok := tenant.FromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, org.ID, got.ID)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("guards exit in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string
		guard := func(name string) tenant.ScopeGuard {
			return tenant.GuardFunc{
				OnEnter: func(context.Context, *tenant.Tenant) error {
					order = append(order, "enter:"+name)
					return nil
				},
				OnExit: func(context.Context) {
					order = append(order, "exit:"+name)
				},
			}
		}

		err := tenant.RunInScope(context.Background(), newTenant("acme"), func(context.Context) error {
			order = append(order, "fn")
			return nil
		}, guard("schema"), guard("metrics"))
		require.NoError(t, err)

		assert.Equal(t, []string{
			"enter:schema", "enter:metrics", "fn", "exit:metrics", "exit:schema",
		}, order)
	})

	t.Run("failed enter rolls back entered guards only", func(t *testing.T) {
		t.Parallel()

		var exited []string
		ok := tenant.GuardFunc{
			OnExit: func(context.Context) { exited = append(exited, "first") },
		}
		failing := tenant.GuardFunc{
			OnEnter: func(context.Context, *tenant.Tenant) error {
				return errors.New("activation failed")
			},
			OnExit: func(context.Context) { exited = append(exited, "second") },
		}

		err := tenant.RunInScope(context.Background(), newTenant("acme"), func(context.Context) error {
			t.Fatal("fn must not run when a guard fails to enter")
			return nil
		}, ok, failing)
		require.Error(t, err)

		assert.Equal(t, []string{"first"}, exited)
	})

	t.Run("guards exit on panic", func(t *testing.T) {
		t.Parallel()

		exited := false
		guard := tenant.GuardFunc{
			OnExit: func(context.Context) { exited = true },
		}

		assert.Panics(t, func() {
			_ = tenant.RunInScope(context.Background(), newTenant("acme"), func(context.Context) error {
				panic("handler blew up")
			}, guard)
		})
		assert.True(t, exited, "guard must exit even when fn panics")
	})

	t.Run("fn error is returned", func(t *testing.T) {
		t.Parallel()

		want := errors.New("handler failed")
		err := tenant.RunInScope(context.Background(), newTenant("acme"), func(context.Context) error {
			return want
		})
		assert.ErrorIs(t, err, want)
	})
}
