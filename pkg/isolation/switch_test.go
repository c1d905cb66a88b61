package isolation_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type recordingExecer struct {
	statements []string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, nil
}

func dedicatedTenant(slug string) *tenant.Tenant {
	t := &tenant.Tenant{Slug: slug, Name: slug, Active: true}
	t.IsolationMode = tenant.IsolationDedicated
	return t
}

func sharedTenant(slug string) *tenant.Tenant {
	t := &tenant.Tenant{Slug: slug, Name: slug, Active: true}
	t.IsolationMode = tenant.IsolationShared
	return t
}

func TestSwitch_SchemaFor(t *testing.T) {
	t.Parallel()

	sw := isolation.NewSwitch(nil)

	t.Run("shared tenant uses shared schema", func(t *testing.T) {
		t.Parallel()

		schema, err := sw.SchemaFor(sharedTenant("acme"))
		require.NoError(t, err)
		assert.Equal(t, isolation.DefaultSharedSchema, schema)
	})

	t.Run("nil tenant uses shared schema", func(t *testing.T) {
		t.Parallel()

		schema, err := sw.SchemaFor(nil)
		require.NoError(t, err)
		assert.Equal(t, isolation.DefaultSharedSchema, schema)
	})

	t.Run("dedicated tenant uses sanitized slug", func(t *testing.T) {
		t.Parallel()

		schema, err := sw.SchemaFor(dedicatedTenant("Acme-Corp"))
		require.NoError(t, err)
		assert.Equal(t, "acme_corp", schema)
	})

	t.Run("hostile slug is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := sw.SchemaFor(dedicatedTenant("日本語"))
		assert.ErrorIs(t, err, isolation.ErrInvalidIdentifier)
	})
}

func TestSwitch_ActivateReset(t *testing.T) {
	t.Parallel()

	t.Run("dedicated activation sets both schemas on the path", func(t *testing.T) {
		t.Parallel()

		sw := isolation.NewSwitch(nil)
		conn := &recordingExecer{}

		require.NoError(t, sw.Activate(context.Background(), conn, dedicatedTenant("acme")))
		require.Len(t, conn.statements, 1)
		assert.Equal(t, "SET search_path TO acme, public", conn.statements[0])
	})

	t.Run("shared activation keeps the shared schema only", func(t *testing.T) {
		t.Parallel()

		sw := isolation.NewSwitch(nil)
		conn := &recordingExecer{}

		require.NoError(t, sw.Activate(context.Background(), conn, sharedTenant("acme")))
		require.Len(t, conn.statements, 1)
		assert.Equal(t, "SET search_path TO public", conn.statements[0])
	})

	t.Run("reset restores the shared schema", func(t *testing.T) {
		t.Parallel()

		sw := isolation.NewSwitch(nil)
		conn := &recordingExecer{}

		require.NoError(t, sw.Activate(context.Background(), conn, dedicatedTenant("acme")))
		require.NoError(t, sw.Reset(context.Background(), conn))
		require.Len(t, conn.statements, 2)
		assert.Equal(t, "SET search_path TO public", conn.statements[1])
	})

	t.Run("custom shared schema", func(t *testing.T) {
		t.Parallel()

		sw := isolation.NewSwitch(nil, isolation.WithSharedSchema("tenants_shared"))
		conn := &recordingExecer{}

		require.NoError(t, sw.Activate(context.Background(), conn, dedicatedTenant("acme")))
		assert.Equal(t, "SET search_path TO acme, tenants_shared", conn.statements[0])
	})
}
