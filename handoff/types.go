package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/runtime/execution"
)

// Request describes one control transfer: who is delegating, to whom, with
// what input and why.  ContextDelta entries are merged into the shared
// execution context before the target runs.
type Request struct {
	Source       string
	Target       string
	Input        string
	Reason       string
	ContextDelta map[string]types.Value
}

// InputData is what a transfer target observes on arrival: the transfer
// coordinates plus a point-in-time snapshot of the shared context store,
// taken after the delta was applied.
type InputData struct {
	Source          string
	Target          string
	Input           string
	Reason          string
	ContextSnapshot map[string]types.Value
	Metadata        types.Metadata
}

// InputFilter rewrites the transfer payload before the target sees it, e.g.
// to redact keys or summarise a long input.
type InputFilter func(data *InputData) (*InputData, error)

// Observer is notified after the payload is filtered and before the target
// runs.  Observer errors are logged, never fatal.
type Observer func(ctx context.Context, data *InputData) error

// Receiver customises how a target consumes a transfer.  Targets without a
// receiver get the default treatment: delta applied, then Run with the
// filtered input.
type Receiver interface {
	OnReceive(ctx context.Context, data *InputData) (*execution.Result, error)
}

// Config is the per-target transfer policy, registered under the target's
// name.  The zero value accepts every transfer unchanged.
type Config struct {
	IsEnabled   func(ctx context.Context, req *Request) (bool, error)
	InputFilter InputFilter
	OnHandoff   Observer
	Receiver    Receiver
}

// Result reports a completed transfer.
type Result struct {
	Target             string
	Input              string
	Result             *execution.Result
	TransferredContext map[string]types.Value
	At                 time.Time
}

// NotFoundError is returned when a transfer names an unregistered target.
type NotFoundError struct {
	Name string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found in handoff registry", e.Name)
}

// SkippedError is returned when the target's enablement check rejected the
// transfer.
type SkippedError struct {
	Source string
	Target string
	Reason string
}

// Error implements error.
func (e *SkippedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("handoff %s -> %s skipped: %s", e.Source, e.Target, e.Reason)
	}
	return fmt.Sprintf("handoff %s -> %s skipped", e.Source, e.Target)
}
