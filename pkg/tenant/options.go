package tenant

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrorHandler handles errors raised during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	guards       []ScopeGuard
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution,
// e.g. health checks and metrics endpoints.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithScopeGuards registers guards entered for every tenant request and
// exited on completion, typically the isolation switch.
func WithScopeGuards(guards ...ScopeGuard) Option {
	return func(c *config) {
		c.guards = append(c.guards, guards...)
	}
}

// WithLogger sets the middleware logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Organization is inactive", http.StatusForbidden)
	case errors.Is(err, ErrMaintenanceMode):
		http.Error(w, "Under maintenance, back shortly", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
