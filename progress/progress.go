// Package progress provides a lightweight tracker that keeps aggregated
// unit counters (total, completed, failed, …) for a single orchestrated
// run.  The tracker instance lives in the execution context – every
// composite that receives the context can atomically update the counters
// via the Delta helper without requiring a global registry.

package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by a composite or
// the runtime.  Fields are signed so they can increment or decrement.
type Delta struct {
	Total     int
	Completed int
	Failed    int
	Cancelled int
	Running   int
}

// Snapshot is a read-only copy of the tracker state.
type Snapshot struct {
	RunID     string
	RootUnit  string
	StartedAt time.Time

	TotalUnits     int
	CompletedUnits int
	FailedUnits    int
	CancelledUnits int
	RunningUnits   int
}

// Progress keeps aggregated unit counters for a run, including every nested
// composite.  It is safe for concurrent use.
type Progress struct {
	// Identification – informative only, filled when the run starts.
	runID     string
	rootUnit  string
	startedAt time.Time

	mu       sync.Mutex
	counters Snapshot
	onChange func(Snapshot)
}

// Update applies the supplied delta to the tracker.  It is safe to call
// from multiple goroutines.  A registered onChange callback is invoked with
// a copy of the updated state outside the critical section so that it can
// perform slow operations without blocking engine internals.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.counters.TotalUnits += d.Total
	p.counters.CompletedUnits += d.Completed
	p.counters.FailedUnits += d.Failed
	p.counters.CancelledUnits += d.Cancelled
	p.counters.RunningUnits += d.Running
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker state for read-only inspection.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update.  Passing nil
// disables the callback; subsequent calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Progress tracker, embeds it in a derived
// context and returns both.
func WithNewTracker(ctx context.Context, runID, rootUnit string, onChange func(Snapshot)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	tr := &Progress{
		runID:     runID,
		rootUnit:  rootUnit,
		startedAt: started,
		counters: Snapshot{
			RunID:     runID,
			RootUnit:  rootUnit,
			StartedAt: started,
		},
		onChange: onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the Progress tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot combines FromContext and Snapshot; the boolean is false when
// the context carries no tracker.
func GetSnapshot(ctx context.Context) (Snapshot, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Snapshot{}, false
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
