package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// User is the acting principal for the current request. Staff users may
// impersonate tenant users during support sessions, in which case the
// impersonator is carried separately in the context.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Staff bool      `json:"staff"`
}

// Private key types prevent collisions with other context keys.
type (
	tenantContextKey       struct{}
	userContextKey         struct{}
	impersonatorContextKey struct{}
)

// WithTenant returns a context carrying the tenant. Values are scoped to
// the derived context, so concurrent requests never observe each other.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// FromContext retrieves the tenant from the context.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	return t, ok && t != nil
}

// MustFromContext retrieves the tenant from the context and panics when
// absent. Use only in code paths that cannot run without a tenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// IDFromContext retrieves just the tenant ID from the context.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext retrieves the acting user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok && u != nil
}

// WithImpersonator returns a context carrying the staff member acting on
// behalf of the current user. Only set during staff-assisted sessions.
func WithImpersonator(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, impersonatorContextKey{}, u)
}

// ImpersonatorFromContext retrieves the impersonator from the context.
func ImpersonatorFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(impersonatorContextKey{}).(*User)
	return u, ok && u != nil
}

// ClearContext returns a context with tenant, user, and impersonator
// all unset, shadowing any values installed by outer scopes.
func ClearContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, tenantContextKey{}, (*Tenant)(nil))
	ctx = context.WithValue(ctx, userContextKey{}, (*User)(nil))
	return context.WithValue(ctx, impersonatorContextKey{}, (*User)(nil))
}

// LoggerExtractor returns a context extractor for the logger that adds
// the tenant ID to every log record emitted within a tenant scope.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}

// UserLoggerExtractor returns a context extractor that adds the acting
// user ID, and the impersonator ID when a staff session is active.
func UserLoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		u, ok := UserFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		if imp, ok := ImpersonatorFromContext(ctx); ok {
			return slog.Group("actor",
				slog.String("user_id", u.ID.String()),
				slog.String("impersonator_id", imp.ID.String()),
			), true
		}
		return slog.String("user_id", u.ID.String()), true
	}
}
