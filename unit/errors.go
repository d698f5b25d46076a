package unit

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the composition engine. Typed errors that
// carry structured detail live next to the component that raises them
// (composite, handoff).

var (
	// ErrCancelled is returned when a unit observes a cancellation request
	// at an iteration boundary before dispatching further work.
	ErrCancelled = errors.New("execution cancelled")

	// ErrNoUnits is returned when a composite is executed with no children
	// configured.
	ErrNoUnits = errors.New("no units configured")
)

// InternalError wraps an unexpected engine-side failure with a reason.
type InternalError struct {
	Reason string
	Err    error
}

// Error implements error.
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("internal error: %s", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *InternalError) Unwrap() error { return e.Err }
