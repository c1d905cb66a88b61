package provider

import "errors"

var (
	// ErrProviderNotConfigured is returned when a tenant requests a
	// capability with no backend configured and no default registered.
	ErrProviderNotConfigured = errors.New("provider.errors.not_configured")
	// ErrUnknownBackend is returned when a tenant's configuration names
	// a backend the registry has no factory for.
	ErrUnknownBackend = errors.New("provider.errors.unknown_backend")
	// ErrInvalidConfig is returned when a backend factory rejects the
	// tenant's configuration section.
	ErrInvalidConfig = errors.New("provider.errors.invalid_config")
	// ErrCallTimeout is returned when a provider call exceeds the
	// runtime's per-call deadline.
	ErrCallTimeout = errors.New("provider.errors.call_timeout")
)
