package composite

import (
	"context"
	"errors"

	"github.com/flowmesh/flowmesh/condition"
	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/progress"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/tracing"
	"github.com/flowmesh/flowmesh/unit"
)

// Route pairs a condition with the unit it selects.  An empty Name defaults
// to the unit's own name.
type Route struct {
	Name      string
	Condition condition.Condition
	Unit      unit.Unit
}

// RouterOption customises a router composite.
type RouterOption func(*Router)

// WithFallback installs the unit selected when no route condition matches.
func WithFallback(fallback unit.Unit) RouterOption {
	return func(r *Router) { r.fallback = fallback }
}

// Router dispatches its input to the first route whose condition reports
// true, evaluated strictly in declared order.  Exactly one unit runs per
// invocation; with no match and no fallback the router fails with a
// RoutingError.
type Router struct {
	unit.Base
	routes   []Route
	fallback unit.Unit
}

// NewRouter creates a first-match router over the declared routes.
func NewRouter(name string, routes []Route, options ...RouterOption) *Router {
	ret := &Router{
		Base:   unit.NewBase(name),
		routes: routes,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Routes returns the declared route list.
func (r *Router) Routes() []Route { return r.routes }

// Fallback returns the configured fallback unit, if any.
func (r *Router) Fallback() unit.Unit { return r.fallback }

// Cancel requests cooperative cancellation and forwards it to every route
// unit and the fallback.
func (r *Router) Cancel() {
	r.Base.Cancel()
	for _, route := range r.routes {
		route.Unit.Cancel()
	}
	if r.fallback != nil {
		r.fallback.Cancel()
	}
}

// Run evaluates the routes and executes the selected unit.
func (r *Router) Run(ctx context.Context, input string) (*execution.Result, error) {
	return r.execute(ctx, input, nil)
}

// Stream evaluates the routes and executes the selected unit, emitting a
// single iteration event pair for the dispatched route.
func (r *Router) Stream(ctx context.Context, input string) <-chan execution.Event {
	emitter := execution.NewEmitter(r.Name())
	go func() {
		emitter.Started()
		result, err := r.execute(ctx, input, emitter)
		finish(emitter, result, err)
	}()
	return emitter.Events()
}

func (r *Router) execute(ctx context.Context, input string, emitter *execution.Emitter) (ret *execution.Result, err error) {
	if len(r.routes) == 0 && r.fallback == nil {
		return nil, unit.ErrNoUnits
	}
	if err = r.Guard(ctx); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "router.run "+r.Name(), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"unit.name": r.Name()})

	ec := execution.FromContext(ctx)
	var snapshot map[string]types.Value
	if ec != nil {
		snapshot = ec.Snapshot()
	}

	selected, routeName, err := r.match(ctx, input, snapshot)
	if err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{"route.matched": routeName})

	if err = policy.Authorize(ctx, selected.Name(), input); err != nil {
		return nil, err
	}
	if emitter != nil {
		emitter.IterationStarted(1)
	}
	progress.UpdateCtx(ctx, progress.Delta{Total: 1, Running: 1})
	if ec != nil {
		ec.RecordExecution(selected.Name())
	}

	started := clock.Now()
	result, err := selected.Run(ctx, input)
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
		emitter.IterationCompleted(1)
	}
	if ec != nil {
		ec.SetPreviousResult(result)
	}

	annotated := result.Clone()
	if annotated.Metadata == nil {
		annotated.Metadata = types.NewMetadata()
	}
	annotated.Metadata["matched_route"] = types.String(routeName)
	annotated.Metadata["route_count"] = types.Int(len(r.routes))
	if annotated.Duration == 0 {
		annotated.Duration = clock.Now().Sub(started)
	}
	return annotated, nil
}

// match returns the first route whose condition reports true, in declared
// order.  A condition error aborts routing with that error; later routes
// are never consulted.
func (r *Router) match(ctx context.Context, input string, snapshot map[string]types.Value) (unit.Unit, string, error) {
	for _, route := range r.routes {
		matched, err := route.Condition(ctx, input, snapshot)
		if err != nil {
			return nil, "", err
		}
		if matched {
			name := route.Name
			if name == "" {
				name = route.Unit.Name()
			}
			return route.Unit, name, nil
		}
	}
	if r.fallback != nil {
		return r.fallback, "fallback", nil
	}
	return nil, "", &RoutingError{Reason: "no route condition matched and no fallback configured"}
}
