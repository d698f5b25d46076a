package unit

import (
	"context"
	"sync/atomic"
)

// Base provides the common naming and cooperative cancellation state shared
// by leaf and composite unit implementations. Embed it and call Guard at
// every iteration boundary.
type Base struct {
	name      string
	cancelled int32
}

// NewBase creates the shared state for a named unit.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the unit name.
func (b *Base) Name() string { return b.name }

// Cancel sets the cooperative cancellation flag. Idempotent.
func (b *Base) Cancel() { atomic.StoreInt32(&b.cancelled, 1) }

// Cancelled reports whether cancellation has been requested.
func (b *Base) Cancelled() bool { return atomic.LoadInt32(&b.cancelled) == 1 }

// Guard checks the cancellation flag and the ctx deadline/cancellation. It
// returns ErrCancelled when either signals that no further work may start.
func (b *Base) Guard(ctx context.Context) error {
	if b.Cancelled() {
		return ErrCancelled
	}
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
	}
	return nil
}
