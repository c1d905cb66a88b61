package isolation

import "errors"

var (
	// ErrInvalidIdentifier is returned when a tenant slug cannot be turned
	// into a safe partition identifier. Treated as a security violation.
	ErrInvalidIdentifier = errors.New("isolation.errors.invalid_identifier")

	// ErrActivationFailed is returned when the partition switch statement
	// fails on the acquired connection.
	ErrActivationFailed = errors.New("isolation.errors.activation_failed")

	// ErrProvisionFailed is returned when a dedicated partition cannot be
	// created or dropped.
	ErrProvisionFailed = errors.New("isolation.errors.provision_failed")
)
