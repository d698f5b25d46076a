package composite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/progress"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/tracing"
	"github.com/flowmesh/flowmesh/unit"
)

// ErrorPolicy governs how a parallel composite reacts to branch failures.
type ErrorPolicy string

const (
	// ErrorPolicyFailFast cancels all remaining branches on the first
	// failure and propagates that failure as the composite's error.
	ErrorPolicyFailFast ErrorPolicy = "fail_fast"

	// ErrorPolicyContinue lets every launched branch finish and merges the
	// successes; only when all branches fail does the composite fail, with
	// an aggregate error.  This is the default.
	ErrorPolicyContinue ErrorPolicy = "continue_on_partial_failure"

	// ErrorPolicyCollect behaves like ErrorPolicyContinue but additionally
	// records branch failures under the parallel.errors metadata key.
	ErrorPolicyCollect ErrorPolicy = "collect_errors"
)

// NamedUnit pairs a branch name with its unit; names key per-branch results
// and metadata.
type NamedUnit struct {
	Name string
	Unit unit.Unit
}

// ParallelOption customises a parallel composite.
type ParallelOption func(*Parallel)

// WithConcurrencyLimit bounds how many branches run at once.  Zero or
// negative means unlimited (every branch launches immediately).
func WithConcurrencyLimit(limit int) ParallelOption {
	return func(p *Parallel) { p.limit = limit }
}

// WithMergeStrategy selects how successful branch outputs are combined.
func WithMergeStrategy(strategy MergeStrategy) ParallelOption {
	return func(p *Parallel) { p.merge = strategy }
}

// WithErrorPolicy selects the failure reaction.
func WithErrorPolicy(errorPolicy ErrorPolicy) ParallelOption {
	return func(p *Parallel) { p.errorPolicy = errorPolicy }
}

// Parallel fans its input out to every branch concurrently, bounded by the
// concurrency limit: as a running branch finishes the next queued branch is
// admitted, worker-pool style.  All branches observe the identical input
// snapshot taken at launch.
type Parallel struct {
	unit.Base
	branches    []NamedUnit
	limit       int
	merge       MergeStrategy
	errorPolicy ErrorPolicy
}

// NewParallel creates a concurrent fan-out over the named branches.
func NewParallel(name string, branches []NamedUnit, options ...ParallelOption) *Parallel {
	ret := &Parallel{
		Base:        unit.NewBase(name),
		branches:    branches,
		merge:       MergeConcatenate("\n\n"),
		errorPolicy: ErrorPolicyContinue,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Branches returns the declared branch list.
func (p *Parallel) Branches() []NamedUnit { return p.branches }

// Cancel requests cooperative cancellation and forwards it to every branch.
func (p *Parallel) Cancel() {
	p.Base.Cancel()
	for _, branch := range p.branches {
		branch.Unit.Cancel()
	}
}

// Run executes the fan-out to completion.
func (p *Parallel) Run(ctx context.Context, input string) (*execution.Result, error) {
	return p.execute(ctx, input, nil)
}

// Stream executes the fan-out, emitting one iteration event pair per branch
// keyed by declared ordinal; completion events arrive in completion order.
func (p *Parallel) Stream(ctx context.Context, input string) <-chan execution.Event {
	emitter := execution.NewEmitter(p.Name())
	go func() {
		emitter.Started()
		result, err := p.execute(ctx, input, emitter)
		finish(emitter, result, err)
	}()
	return emitter.Events()
}

// outcome captures one branch's completion for post-processing.
type outcome struct {
	result *execution.Result
	err    error
	seq    int // completion order, 1-based; 0 means never launched
}

func (p *Parallel) execute(ctx context.Context, input string, emitter *execution.Emitter) (ret *execution.Result, err error) {
	n := len(p.branches)
	if n == 0 {
		return nil, unit.ErrNoUnits
	}
	if err = p.Guard(ctx); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "parallel.run "+p.Name(), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"unit.name": p.Name(), "merge.strategy": p.merge.String()})

	started := clock.Now()
	ec := execution.FromContext(ctx)

	limit := p.limit
	if limit <= 0 || limit > n {
		limit = n
	}

	runCtx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	var (
		mu         sync.Mutex
		outcomes   = make([]outcome, n)
		nextSeq    int
		firstErr   error
		emitMu     sync.Mutex
		wg         sync.WaitGroup
		indexQueue = make(chan int)
	)

	emit := func(fn func()) {
		if emitter == nil {
			return
		}
		emitMu.Lock()
		defer emitMu.Unlock()
		fn()
	}

	runBranch := func(idx int) {
		branch := p.branches[idx]

		// Queued branches cancelled before launch never dispatch.
		if p.Cancelled() || runCtx.Err() != nil {
			mu.Lock()
			outcomes[idx] = outcome{err: unit.ErrCancelled}
			mu.Unlock()
			progress.UpdateCtx(ctx, progress.Delta{Total: 1, Cancelled: 1})
			return
		}
		if authErr := policy.Authorize(runCtx, branch.Unit.Name(), input); authErr != nil {
			mu.Lock()
			outcomes[idx] = outcome{err: authErr}
			mu.Unlock()
			progress.UpdateCtx(ctx, progress.Delta{Total: 1, Failed: 1})
			return
		}

		progress.UpdateCtx(ctx, progress.Delta{Total: 1, Running: 1})
		if ec != nil {
			ec.RecordExecution(branch.Unit.Name())
		}
		emit(func() { emitter.IterationStarted(idx + 1) })

		result, runErr := branch.Unit.Run(runCtx, input)

		mu.Lock()
		nextSeq++
		outcomes[idx] = outcome{result: result, err: runErr, seq: nextSeq}
		if runErr != nil && firstErr == nil && !errors.Is(runErr, unit.ErrCancelled) {
			firstErr = runErr
			if p.errorPolicy == ErrorPolicyFailFast {
				// First failure cancels everything still outstanding.
				cancelAll()
				for _, other := range p.branches {
					other.Unit.Cancel()
				}
			}
		}
		mu.Unlock()

		switch {
		case runErr == nil:
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Completed: 1})
			emit(func() { emitter.IterationCompleted(idx + 1) })
		case errors.Is(runErr, unit.ErrCancelled):
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Cancelled: 1})
		default:
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Failed: 1})
		}
	}

	for w := 0; w < limit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexQueue {
				runBranch(idx)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indexQueue <- i
	}
	close(indexQueue)
	wg.Wait()

	return p.collect(outcomes, clock.Now().Sub(started), firstErr)
}

// collect turns per-branch outcomes into the composite result according to
// the configured error policy and merge strategy.
func (p *Parallel) collect(outcomes []outcome, elapsed time.Duration, firstErr error) (*execution.Result, error) {
	var (
		successes []BranchResult
		failures  []BranchError
		earliest  *BranchResult
		bestSeq   int
	)
	for i, o := range outcomes {
		name := p.branches[i].Name
		switch {
		case o.err != nil:
			failures = append(failures, BranchError{Name: name, Err: o.err})
		case o.result != nil:
			successes = append(successes, BranchResult{Name: name, Result: o.result})
			if bestSeq == 0 || o.seq < bestSeq {
				bestSeq = o.seq
				earliest = &successes[len(successes)-1]
			}
		}
	}

	if p.errorPolicy == ErrorPolicyFailFast && firstErr != nil {
		return nil, firstErr
	}
	if len(successes) == 0 {
		allCancelled := len(failures) > 0
		for _, failure := range failures {
			if !errors.Is(failure.Err, unit.ErrCancelled) {
				allCancelled = false
				break
			}
		}
		if allCancelled {
			return nil, unit.ErrCancelled
		}
		return nil, &AggregateError{Branches: failures}
	}

	output, err := p.merge.apply(successes, earliest)
	if err != nil {
		return nil, err
	}

	composite := &execution.Result{Output: output, Duration: elapsed, Metadata: types.NewMetadata()}
	for _, branch := range successes {
		composite.Absorb(branch.Result)
		for key, value := range branch.Result.Metadata {
			composite.Metadata[fmt.Sprintf("parallel.%s.%s", branch.Name, key)] = value
		}
	}
	composite.Metadata["agent_count"] = types.Int(len(p.branches))
	composite.Metadata["success_count"] = types.Int(len(successes))
	composite.Metadata["error_count"] = types.Int(len(failures))
	if p.errorPolicy == ErrorPolicyCollect && len(failures) > 0 {
		collected := make([]types.Value, len(failures))
		for i, failure := range failures {
			collected[i] = types.String(fmt.Sprintf("%s: %v", failure.Name, failure.Err))
		}
		composite.Metadata["parallel.errors"] = types.Array(collected...)
	}
	return composite, nil
}
