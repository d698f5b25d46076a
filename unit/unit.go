// Package unit defines the capability contract every composable node in the
// engine implements, leaf or composite: a blocking Run, a lazy lifecycle
// event Stream and an idempotent cooperative Cancel.
package unit

import (
	"context"

	"github.com/flowmesh/flowmesh/runtime/execution"
)

// Unit is the uniform contract for an execution unit. Implementations must
// honour cooperative cancellation: once Cancel has been called, Run fails
// with ErrCancelled before dispatching any further work, and composites
// forward the signal to their children.
type Unit interface {
	// Name returns a stable identifier used in history, metadata and events.
	Name() string

	// Run executes the unit to completion with the supplied input. The
	// shared execution context, when present, travels inside ctx (see
	// execution.WithContext).
	Run(ctx context.Context, input string) (*execution.Result, error)

	// Stream executes the unit and exposes its lifecycle as a lazy, finite,
	// non-restartable event sequence. The channel closes after the terminal
	// event.
	Stream(ctx context.Context, input string) <-chan execution.Event

	// Cancel requests cooperative cancellation. It is idempotent, returns
	// immediately and is observed at the next iteration boundary.
	Cancel()
}
