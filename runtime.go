package flowmesh

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/flowmesh/flowmesh/extension"
	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/internal/idgen"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/progress"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/service/dao"
	"github.com/flowmesh/flowmesh/service/event"
	"github.com/flowmesh/flowmesh/tracing"
	"github.com/flowmesh/flowmesh/unit"
)

// Runtime executes top-level runs: it assembles the per-run context
// (shared state, policy, progress tracker, tracing span), drives the root
// unit, persists the run record and publishes lifecycle events.
type Runtime struct {
	runDAO         dao.Service[string, execution.RunRecord]
	eventService   *event.Service
	defaultPolicy  *policy.Policy
	types          *extension.Types
	defaultTimeout time.Duration
}

// Run executes the root unit to completion and returns its result.  Every
// run gets a fresh shared execution context and a unique run identifier.
func (r *Runtime) Run(ctx context.Context, root unit.Unit, input string) (ret *execution.Result, err error) {
	runID := idgen.New()
	ctx, ec, cancel := r.prepare(ctx, runID, root, input)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "runtime.run "+root.Name(), "SERVER")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"run.id": runID, "unit.name": root.Name()})

	record := r.openRecord(ctx, runID, root, input)
	r.publish(ctx, runID, root.Name(), string(execution.EventStarted), nil)

	ret, err = root.Run(ctx, input)
	r.closeRecord(ctx, record, ec, ret, err)
	return ret, err
}

// Stream executes the root unit while forwarding its lifecycle events; the
// returned channel closes after the terminal event.  The run record and the
// event service observe the same stream.
func (r *Runtime) Stream(ctx context.Context, root unit.Unit, input string) <-chan execution.Event {
	runID := idgen.New()
	ctx, ec, cancel := r.prepare(ctx, runID, root, input)

	record := r.openRecord(ctx, runID, root, input)

	out := make(chan execution.Event, 16)
	go func() {
		defer cancel()
		defer close(out)
		for ev := range root.Stream(ctx, input) {
			r.publish(ctx, runID, ev.UnitName, string(ev.Type), ev.Result)
			if ev.Terminal() {
				var runErr error
				switch ev.Type {
				case execution.EventFailed:
					runErr = ev.Err
				case execution.EventCancelled:
					runErr = unit.ErrCancelled
				}
				r.closeRecord(ctx, record, ec, ev.Result, runErr)
			}
			out <- ev
		}
	}()
	return out
}

// RunRecord returns one run record by identifier.
func (r *Runtime) RunRecord(ctx context.Context, id string) (*execution.RunRecord, error) {
	return r.runDAO.Load(ctx, id)
}

// Runs lists run records, optionally filtered (e.g. by State).
func (r *Runtime) Runs(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.RunRecord, error) {
	return r.runDAO.List(ctx, parameters...)
}

// Progress returns the live progress snapshot for the supplied run context.
func (r *Runtime) Progress(ctx context.Context) (progress.Snapshot, bool) {
	return progress.GetSnapshot(ctx)
}

// prepare assembles the per-run context: shared state, default policy,
// progress tracker and optional timeout.
func (r *Runtime) prepare(ctx context.Context, runID string, root unit.Unit, input string) (context.Context, *execution.Context, context.CancelFunc) {
	ec := execution.NewContext(runID, input, execution.WithTypes(r.types))
	ctx = execution.WithContext(ctx, ec)
	if r.defaultPolicy != nil && policy.FromContext(ctx) == nil {
		ctx = policy.WithPolicy(ctx, r.defaultPolicy)
	}
	ctx, _ = progress.WithNewTracker(ctx, runID, root.Name(), nil)
	cancel := context.CancelFunc(func() {})
	if r.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.defaultTimeout)
	}
	return ctx, ec, cancel
}

func (r *Runtime) openRecord(ctx context.Context, runID string, root unit.Unit, input string) *execution.RunRecord {
	record := &execution.RunRecord{
		ID:        runID,
		RootUnit:  root.Name(),
		Input:     input,
		State:     execution.StateRunning,
		StartedAt: clock.Now(),
	}
	if err := r.runDAO.Save(ctx, record); err != nil {
		log.Printf("[flowmesh] failed to save run record %s: %v", runID, err)
	}
	return record
}

func (r *Runtime) closeRecord(ctx context.Context, record *execution.RunRecord, ec *execution.Context, result *execution.Result, err error) {
	state := execution.StateCompleted
	eventType := execution.EventCompleted
	switch {
	case errors.Is(err, unit.ErrCancelled):
		state = execution.StateCancelled
		eventType = execution.EventCancelled
	case err != nil:
		state = execution.StateFailed
		eventType = execution.EventFailed
	}
	record.History = ec.History()
	record.Finish(state, result, err, clock.Now())
	if saveErr := r.runDAO.Save(ctx, record); saveErr != nil {
		log.Printf("[flowmesh] failed to save run record %s: %v", record.ID, saveErr)
	}
	r.publish(ctx, record.ID, record.RootUnit, string(eventType), result)
}

// RunEvent is the lifecycle payload published to the event service.
// Subscribers install a handler via event.SetListenerOf[flowmesh.RunEvent].
type RunEvent struct {
	RunID    string            `json:"runId"`
	UnitName string            `json:"unitName"`
	Type     string            `json:"type"`
	Result   *execution.Result `json:"result,omitempty"`
}

// publish emits a lifecycle event onto the event service; delivery failures
// are logged, never fatal to the run.
func (r *Runtime) publish(ctx context.Context, runID, unitName, eventType string, result *execution.Result) {
	if r.eventService == nil {
		return
	}
	publisher, err := event.PublisherOf[RunEvent](r.eventService)
	if err != nil {
		log.Printf("[flowmesh] event publisher unavailable: %v", err)
		return
	}
	payload := RunEvent{RunID: runID, UnitName: unitName, Type: eventType, Result: result}
	err = publisher.Publish(ctx, event.NewEvent(&event.Context{
		RunID:     runID,
		UnitName:  unitName,
		EventType: eventType,
	}, payload))
	if err != nil {
		log.Printf("[flowmesh] failed to publish %s event for run %s: %v", eventType, runID, err)
	}
}
