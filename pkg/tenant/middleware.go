package tenant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the request host to a tenant, enforces tenant
// status, installs the tenant context, and enters the registered scope
// guards for the duration of the request. Guards are exited on every
// completion path, so partition activations never leak between
// requests. Hosts without a tenant pass through with an empty context:
// not-found is the public/landing state, not an error.
func Middleware(resolver *Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			t, err := resolver.Resolve(r.Context(), r.Host)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "tenant resolution failed",
					slog.String("host", r.Host), slog.Any("error", err))
				cfg.errorHandler(w, r, err)
				return
			}

			if t == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}
			if t.Maintenance {
				cfg.errorHandler(w, r, ErrMaintenanceMode)
				return
			}

			err = RunInScope(r.Context(), t, func(ctx context.Context) error {
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			}, cfg.guards...)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "tenant scope failed",
					slog.String("tenant", t.Slug), slog.Any("error", err))
				cfg.errorHandler(w, r, err)
			}
		})
	}
}

// RequireTenant ensures a tenant is present in the context, for routes
// that must not serve the public surface.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
