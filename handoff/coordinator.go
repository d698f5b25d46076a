package handoff

import (
	"context"
	"log"
	"sync"

	"github.com/flowmesh/flowmesh/internal/clock"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/tracing"
	"github.com/flowmesh/flowmesh/unit"
)

// Coordinator keeps the registry of transfer-capable units and executes
// transfers between them.  Registration is last-wins: re-registering a name
// replaces the previous unit so behaviour can be swapped at runtime.
type Coordinator struct {
	mu      sync.RWMutex
	units   map[string]unit.Unit
	configs map[string]*Config
}

// NewCoordinator creates an empty transfer registry.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		units:   make(map[string]unit.Unit),
		configs: make(map[string]*Config),
	}
}

// Register adds a unit under the given name, replacing any previous
// registration of that name.
func (c *Coordinator) Register(name string, u unit.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[name] = u
}

// Configure installs the transfer policy for a registered name.  The config
// is matched by this explicit name, never by the unit's runtime type.
func (c *Coordinator) Configure(name string, config *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[name] = config
}

// Lookup returns the unit registered under name.
func (c *Coordinator) Lookup(name string) (unit.Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[name]
	return u, ok
}

// Names returns the registered target names in unspecified order.
func (c *Coordinator) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret := make([]string, 0, len(c.units))
	for name := range c.units {
		ret = append(ret, name)
	}
	return ret
}

// Transfer executes a control transfer: resolve the target, check
// enablement, apply the context delta, filter the payload, notify the
// observer and finally run the target (or its receiver).  The target's
// result becomes the run's previous result.
func (c *Coordinator) Transfer(ctx context.Context, req *Request) (ret *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "handoff.transfer "+req.Target, "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"handoff.source": req.Source, "handoff.target": req.Target})

	c.mu.RLock()
	target, ok := c.units[req.Target]
	config := c.configs[req.Target]
	c.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: req.Target}
	}

	if config != nil && config.IsEnabled != nil {
		enabled, enableErr := config.IsEnabled(ctx, req)
		if enableErr != nil {
			return nil, enableErr
		}
		if !enabled {
			return nil, &SkippedError{Source: req.Source, Target: req.Target, Reason: req.Reason}
		}
	}

	ec := execution.FromContext(ctx)
	if ec != nil {
		ec.Apply(req.ContextDelta)
	}

	data := &InputData{
		Source:   req.Source,
		Target:   req.Target,
		Input:    req.Input,
		Reason:   req.Reason,
		Metadata: types.NewMetadata(),
	}
	if ec != nil {
		data.ContextSnapshot = ec.Snapshot()
	}
	if config != nil && config.InputFilter != nil {
		data, err = config.InputFilter(data)
		if err != nil {
			return nil, err
		}
	}
	if config != nil && config.OnHandoff != nil {
		if observeErr := config.OnHandoff(ctx, data); observeErr != nil {
			log.Printf("[handoff] observer for %s failed: %v", req.Target, observeErr)
		}
	}

	if ec != nil {
		ec.RecordExecution(req.Target)
	}

	var result *execution.Result
	if config != nil && config.Receiver != nil {
		result, err = config.Receiver.OnReceive(ctx, data)
	} else {
		result, err = target.Run(ctx, data.Input)
	}
	if err != nil {
		return nil, err
	}
	if ec != nil {
		ec.SetPreviousResult(result)
	}

	return &Result{
		Target:             req.Target,
		Input:              data.Input,
		Result:             result,
		TransferredContext: req.ContextDelta,
		At:                 clock.Now(),
	}, nil
}
