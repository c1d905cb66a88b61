package breaker

import (
	"errors"
	"fmt"
	"time"
)

// ErrCircuitOpen is the stable identity for fail-fast rejections.
// Use errors.Is against it; the concrete error is always *OpenError.
var ErrCircuitOpen = errors.New("breaker.errors.circuit_open")

// ErrStoreUnavailable is returned when breaker state cannot be read or
// written. The breaker fails open in that case: calls proceed.
var ErrStoreUnavailable = errors.New("breaker.errors.store_unavailable")

// OpenError reports a rejected call while a circuit is open. RetryAfter
// tells the caller when the next speculative call will be allowed.
type OpenError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit %q is open, retry after %s", e.Key, e.RetryAfter.Round(time.Millisecond))
}

func (e *OpenError) Is(target error) bool { return target == ErrCircuitOpen }

// IsOpen reports whether err is a circuit-open rejection.
func IsOpen(err error) bool { return errors.Is(err, ErrCircuitOpen) }
