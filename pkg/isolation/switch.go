package isolation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// DefaultSharedSchema is the partition shared by all SHARED tenants.
const DefaultSharedSchema = "public"

// Execer is the narrow statement contract the switch needs. Satisfied
// by *pgxpool.Conn, pgx.Conn, and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Switch activates a tenant's data partition on a database session.
// Partition activation is connection-scoped: Activate must be paired
// with Reset before the connection returns to the pool, or the next
// request served by that connection would leak into the wrong
// partition. Acquire handles the pairing automatically.
type Switch struct {
	pool   *pgxpool.Pool
	shared string
}

// SwitchOption configures a Switch.
type SwitchOption func(*Switch)

// WithSharedSchema overrides the schema used for SHARED tenants.
func WithSharedSchema(schema string) SwitchOption {
	return func(s *Switch) {
		if schema != "" {
			s.shared = schema
		}
	}
}

// NewSwitch creates an isolation switch over the given pool.
func NewSwitch(pool *pgxpool.Pool, opts ...SwitchOption) *Switch {
	s := &Switch{pool: pool, shared: DefaultSharedSchema}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SchemaFor returns the partition identifier for a tenant: the shared
// schema for SHARED tenants, the sanitized slug for DEDICATED ones.
func (s *Switch) SchemaFor(t *tenant.Tenant) (string, error) {
	if t == nil || t.IsolationMode != tenant.IsolationDedicated {
		return s.shared, nil
	}
	return SanitizeIdentifier(t.Slug)
}

// Activate points the session's search_path at the tenant's partition.
// The schema name is sanitized before interpolation; the shared schema
// stays on the path so cross-tenant reference tables keep resolving.
func (s *Switch) Activate(ctx context.Context, conn Execer, t *tenant.Tenant) error {
	schema, err := s.SchemaFor(t)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("SET search_path TO %s", schema)
	if schema != s.shared {
		stmt = fmt.Sprintf("SET search_path TO %s, %s", schema, s.shared)
	}
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return errors.Join(ErrActivationFailed, err)
	}
	return nil
}

// Reset restores the default shared partition on the session.
func (s *Switch) Reset(ctx context.Context, conn Execer) error {
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", s.shared)); err != nil {
		return errors.Join(ErrActivationFailed, err)
	}
	return nil
}

// Acquire checks out a connection bound to the tenant's partition. The
// returned release function reverts the partition and returns the
// connection to the pool; callers must invoke it on every path.
func (s *Switch) Acquire(ctx context.Context, t *tenant.Tenant) (*pgxpool.Conn, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Activate(ctx, conn, t); err != nil {
		conn.Release()
		return nil, nil, err
	}

	release := func() {
		// Reset uses a background context so cancellation of the request
		// cannot leave the connection pointing at a tenant partition.
		_ = s.Reset(context.Background(), conn)
		conn.Release()
	}
	return conn, release, nil
}

// Guard adapts the switch to a tenant.ScopeGuard for use with
// tenant.RunInScope and the HTTP middleware. Enter acquires and binds a
// connection, Exit releases it. The bound connection travels in the
// context and is retrieved with ConnFromContext.
func (s *Switch) Guard() tenant.ScopeGuard {
	return &switchGuard{s: s}
}

type connContextKey struct{}

type switchGuard struct {
	s *Switch
}

func (g *switchGuard) Enter(ctx context.Context, t *tenant.Tenant) error {
	// The guard cannot thread a derived context back to the caller, so the
	// holder is installed mutable-by-pointer up front by GuardContext.
	holder, ok := ctx.Value(connContextKey{}).(*connHolder)
	if !ok {
		return nil
	}

	conn, release, err := g.s.Acquire(ctx, t)
	if err != nil {
		return err
	}
	holder.conn = conn
	holder.release = release
	return nil
}

func (g *switchGuard) Exit(ctx context.Context) {
	holder, ok := ctx.Value(connContextKey{}).(*connHolder)
	if !ok || holder.release == nil {
		return
	}
	holder.release()
	holder.conn = nil
	holder.release = nil
}

type connHolder struct {
	conn    *pgxpool.Conn
	release func()
}

// GuardContext prepares a context for use with Switch.Guard. Install it
// before entering the scope so the guard has a place to bind the
// partition connection.
func GuardContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, connContextKey{}, &connHolder{})
}

// ConnFromContext returns the partition-bound connection installed by
// the switch guard for the current scope.
func ConnFromContext(ctx context.Context) (*pgxpool.Conn, bool) {
	holder, ok := ctx.Value(connContextKey{}).(*connHolder)
	if !ok || holder.conn == nil {
		return nil, false
	}
	return holder.conn, true
}
