package execution

import (
	"time"

	"github.com/flowmesh/flowmesh/internal/clock"
)

// EventType enumerates the lifecycle events a unit emits while streaming.
type EventType string

const (
	EventStarted            EventType = "started"
	EventIterationStarted   EventType = "iteration_started"
	EventIterationCompleted EventType = "iteration_completed"
	EventCompleted          EventType = "completed"
	EventFailed             EventType = "failed"
	EventCancelled          EventType = "cancelled"
)

// Event is a single lifecycle notification. Completed events carry the
// final result, failed events carry the error; iteration events carry the
// 1-based iteration ordinal.
type Event struct {
	Type      EventType `json:"type"`
	UnitName  string    `json:"unitName"`
	Iteration int       `json:"iteration,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Err       error     `json:"-"`
	At        time.Time `json:"at"`
}

// Terminal reports whether no further events will follow this one.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventCompleted, EventFailed, EventCancelled:
		return true
	}
	return false
}

// Emitter produces a lazy, finite, non-restartable event stream for one
// unit execution. The channel is closed after the terminal event.
type Emitter struct {
	unitName string
	events   chan Event
}

// NewEmitter creates an emitter with a small buffer so producers are not
// blocked by slow consumers of early events.
func NewEmitter(unitName string) *Emitter {
	return &Emitter{unitName: unitName, events: make(chan Event, 16)}
}

// Events exposes the receive side of the stream.
func (e *Emitter) Events() <-chan Event { return e.events }

func (e *Emitter) emit(event Event) {
	event.UnitName = e.unitName
	event.At = clock.Now()
	e.events <- event
}

// Started emits the started event.
func (e *Emitter) Started() { e.emit(Event{Type: EventStarted}) }

// IterationStarted emits an iteration_started event for ordinal n.
func (e *Emitter) IterationStarted(n int) {
	e.emit(Event{Type: EventIterationStarted, Iteration: n})
}

// IterationCompleted emits an iteration_completed event for ordinal n.
func (e *Emitter) IterationCompleted(n int) {
	e.emit(Event{Type: EventIterationCompleted, Iteration: n})
}

// Completed emits the terminal completed event and closes the stream.
func (e *Emitter) Completed(result *Result) {
	e.emit(Event{Type: EventCompleted, Result: result})
	close(e.events)
}

// Failed emits the terminal failed event and closes the stream.
func (e *Emitter) Failed(err error) {
	e.emit(Event{Type: EventFailed, Err: err})
	close(e.events)
}

// Cancelled emits the terminal cancelled event and closes the stream.
func (e *Emitter) Cancelled() {
	e.emit(Event{Type: EventCancelled})
	close(e.events)
}
