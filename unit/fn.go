package unit

import (
	"context"
	"errors"

	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/runtime/execution"
)

// Handler is the work function a Func unit executes. The shared execution
// context, when one is attached to ctx, is available via
// execution.FromContext.
type Handler func(ctx context.Context, input string) (*execution.Result, error)

// Func adapts a plain function into a Unit. It is the simplest leaf
// implementation and the building block used throughout the test suite;
// LLM-backed or tool-backed units implement the same contract externally.
type Func struct {
	Base
	handler Handler
}

// NewFunc creates a leaf unit around the supplied handler.
func NewFunc(name string, handler Handler) *Func {
	return &Func{Base: NewBase(name), handler: handler}
}

// Text creates a leaf unit from a string-to-string function; the returned
// result carries the output with a single iteration.
func Text(name string, fn func(ctx context.Context, input string) (string, error)) *Func {
	return NewFunc(name, func(ctx context.Context, input string) (*execution.Result, error) {
		output, err := fn(ctx, input)
		if err != nil {
			return nil, err
		}
		return execution.NewResult(output), nil
	})
}

// Run executes the handler once, stamping the result duration.
func (f *Func) Run(ctx context.Context, input string) (*execution.Result, error) {
	if err := f.Guard(ctx); err != nil {
		return nil, err
	}
	started := clock.Now()
	result, err := f.handler(ctx, input)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &InternalError{Reason: "unit " + f.Name() + " returned no result"}
	}
	if result.Metadata == nil {
		result.Metadata = types.NewMetadata()
	}
	result.Duration = clock.Now().Sub(started)
	return result, nil
}

// Stream runs the handler in a goroutine, emitting started and a single
// iteration pair around it.
func (f *Func) Stream(ctx context.Context, input string) <-chan execution.Event {
	emitter := execution.NewEmitter(f.Name())
	go func() {
		emitter.Started()
		emitter.IterationStarted(1)
		result, err := f.Run(ctx, input)
		switch {
		case errors.Is(err, ErrCancelled):
			emitter.Cancelled()
		case err != nil:
			emitter.Failed(err)
		default:
			emitter.IterationCompleted(1)
			emitter.Completed(result)
		}
	}()
	return emitter.Events()
}
