package composite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/progress"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/tracing"
	"github.com/flowmesh/flowmesh/unit"
)

// Transformer derives the next step's input from the previous step's
// result.  The derived value only seeds the following step – the composite
// output is always the last unit's raw output.
type Transformer func(result *execution.Result) string

// Passthrough forwards the raw output text unchanged. This is the default.
func Passthrough(result *execution.Result) string { return result.Output }

// MetadataSummary appends a textual summary of the result metadata to the
// output so that downstream steps can see upstream annotations.
func MetadataSummary(result *execution.Result) string {
	if len(result.Metadata) == 0 {
		return result.Output
	}
	var sb strings.Builder
	sb.WriteString(result.Output)
	sb.WriteString("\n\n[metadata]")
	for _, key := range result.Metadata.Keys() {
		sb.WriteString(fmt.Sprintf("\n%s: %s", key, result.Metadata[key].Format()))
	}
	return sb.String()
}

// SequentialOption customises a sequential composite.
type SequentialOption func(*Sequential)

// WithTransformer installs a transformer applied after the step at the
// given index.
func WithTransformer(step int, t Transformer) SequentialOption {
	return func(s *Sequential) { s.transformers[step] = t }
}

// WithDefaultTransformer replaces the passthrough default for every step
// without an explicit per-index transformer.
func WithDefaultTransformer(t Transformer) SequentialOption {
	return func(s *Sequential) { s.defaultTransformer = t }
}

// Sequential executes its units strictly in declared order, threading each
// step's transformed output into the next step's input.  The first error
// aborts the whole chain with no partial result.
type Sequential struct {
	unit.Base
	units              []unit.Unit
	transformers       map[int]Transformer
	defaultTransformer Transformer
}

// NewSequential creates an ordered chain over the supplied units.
func NewSequential(name string, units []unit.Unit, options ...SequentialOption) *Sequential {
	ret := &Sequential{
		Base:               unit.NewBase(name),
		units:              units,
		transformers:       make(map[int]Transformer),
		defaultTransformer: Passthrough,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Units returns the declared children.
func (s *Sequential) Units() []unit.Unit { return s.units }

// Cancel requests cooperative cancellation and forwards it to every child.
func (s *Sequential) Cancel() {
	s.Base.Cancel()
	for _, child := range s.units {
		child.Cancel()
	}
}

// Run executes the chain to completion.
func (s *Sequential) Run(ctx context.Context, input string) (*execution.Result, error) {
	return s.execute(ctx, input, nil)
}

// Stream executes the chain, emitting one iteration event pair per step.
func (s *Sequential) Stream(ctx context.Context, input string) <-chan execution.Event {
	emitter := execution.NewEmitter(s.Name())
	go func() {
		emitter.Started()
		result, err := s.execute(ctx, input, emitter)
		finish(emitter, result, err)
	}()
	return emitter.Events()
}

func (s *Sequential) execute(ctx context.Context, input string, emitter *execution.Emitter) (ret *execution.Result, err error) {
	if len(s.units) == 0 {
		return nil, unit.ErrNoUnits
	}
	ctx, span := tracing.StartSpan(ctx, "sequential.run "+s.Name(), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"unit.name": s.Name()})

	started := clock.Now()
	ec := execution.FromContext(ctx)
	composite := &execution.Result{Metadata: types.NewMetadata()}
	currentInput := input
	var lastOutput string

	for i, child := range s.units {
		if err = s.Guard(ctx); err != nil {
			return nil, err
		}
		if err = policy.Authorize(ctx, child.Name(), currentInput); err != nil {
			return nil, err
		}
		if emitter != nil {
			emitter.IterationStarted(i + 1)
		}
		progress.UpdateCtx(ctx, progress.Delta{Total: 1, Running: 1})
		if ec != nil {
			ec.RecordExecution(child.Name())
		}

		var result *execution.Result
		result, err = child.Run(ctx, currentInput)
		if err != nil {
			delta := progress.Delta{Running: -1, Failed: 1}
			if errors.Is(err, unit.ErrCancelled) {
				delta = progress.Delta{Running: -1, Cancelled: 1}
			}
			progress.UpdateCtx(ctx, delta)
			return nil, err
		}
		progress.UpdateCtx(ctx, progress.Delta{Running: -1, Completed: 1})
		if emitter != nil {
			emitter.IterationCompleted(i + 1)
		}

		composite.Absorb(result)
		composite.Metadata.MergeNamespaced(fmt.Sprintf("step_%d", i), result.Metadata)
		lastOutput = result.Output
		currentInput = s.transformerFor(i)(result)
		if ec != nil {
			ec.SetPreviousResult(result)
		}
	}

	composite.Output = lastOutput
	composite.Duration = clock.Now().Sub(started)
	return composite, nil
}

func (s *Sequential) transformerFor(step int) Transformer {
	if t, ok := s.transformers[step]; ok && t != nil {
		return t
	}
	return s.defaultTransformer
}

// finish emits the terminal event matching the execute outcome.
func finish(emitter *execution.Emitter, result *execution.Result, err error) {
	switch {
	case errors.Is(err, unit.ErrCancelled):
		emitter.Cancelled()
	case err != nil:
		emitter.Failed(err)
	default:
		emitter.Completed(result)
	}
}
