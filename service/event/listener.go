package event

import (
	"context"
	"errors"
	"log"
)

// Listener pumps events from a publisher's queue into a handler on its own
// goroutine until stopped.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewListener creates a stopped listener; call Start to begin consuming.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Stop terminates the consume loop.
func (l *Listener[T]) Stop() { l.cancel() }

// Start launches the consume loop.
func (l *Listener[T]) Start() {
	go func() {
		for {
			event, err := l.publisher.Consume(l.ctx)
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				log.Printf("[event] consume failed: %v", err)
				continue
			}
			if event == nil {
				select {
				case <-l.ctx.Done():
					return
				default:
					continue
				}
			}
			l.handler(event)
		}
	}()
}
