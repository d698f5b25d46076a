// Package event distributes run lifecycle notifications over pluggable
// message queues, with per-payload-type publishers and listeners.
package event

import "time"

// Context identifies where in a run an event originated.
type Context struct {
	RunID     string `json:"runId"`
	UnitName  string `json:"unitName"`
	EventType string `json:"eventType"`
	Iteration int    `json:"iteration,omitempty"`
}

// Event is a typed lifecycle notification.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event around the given payload.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
