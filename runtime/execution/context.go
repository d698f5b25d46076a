package execution

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/flowmesh/flowmesh/extension"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/viant/structology/conv"
)

// Context is the shared mutable scratch state for one top-level run. A
// single instance is created by the runtime and handed by reference to
// every nested composite and unit for the lifetime of the run. All mutation
// is serialised behind one mutex so that concurrent parallel branches never
// interleave an individual operation; no multi-key transaction guarantee is
// provided or required.
type Context struct {
	id            string
	originalInput string

	mu        sync.RWMutex
	history   []string
	store     map[string]types.Value
	previous  *Result
	types     *extension.Types
	converter *conv.Converter
}

// NewContext creates the per-run shared context. The original input is
// immutable after creation.
func NewContext(id, originalInput string, options ...Option) *Context {
	ret := &Context{
		id:            id,
		originalInput: originalInput,
		store:         make(map[string]types.Value),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// ID returns the run identifier this context belongs to.
func (c *Context) ID() string { return c.id }

// OriginalInput returns the input the top-level run started with.
func (c *Context) OriginalInput() string { return c.originalInput }

// Set adds or overwrites a value in the store.
func (c *Context) Set(key string, value types.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

// Get retrieves a value from the store.
func (c *Context) Get(key string) (types.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.store[key]
	return value, ok
}

// GetString retrieves a value as a string.
func (c *Context) GetString(key string) (string, bool) {
	value, ok := c.Get(key)
	if !ok {
		return "", false
	}
	return value.Text()
}

// Apply merges a delta into the store, overwriting existing keys. Used by
// handoff transfers to propagate context deltas in one serialised step.
func (c *Context) Apply(delta map[string]types.Value) {
	if len(delta) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range delta {
		c.store[k] = v
	}
}

// RecordExecution appends a unit name to the run's execution history.
func (c *Context) RecordExecution(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, name)
}

// History returns a copy of the execution history.
func (c *Context) History() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.history...)
}

// Snapshot returns a point-in-time copy of the store. Condition predicates
// and handoff input filters read the snapshot so they never race with
// concurrent writers.
func (c *Context) Snapshot() map[string]types.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret := make(map[string]types.Value, len(c.store))
	for k, v := range c.store {
		ret[k] = v
	}
	return ret
}

// SetPreviousResult stores the most recent unit result.
func (c *Context) SetPreviousResult(result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previous = result
}

// PreviousResult returns the most recent unit result, or nil.
func (c *Context) PreviousResult() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previous
}

// GetInto retrieves a stored value and converts its native form into the
// supplied target pointer.
func (c *Context) GetInto(key string, target interface{}) error {
	value, ok := c.Get(key)
	if !ok {
		return fmt.Errorf("context key %q not found", key)
	}
	return c.convert(value.Native(), target)
}

// GetTyped retrieves a stored value and materialises it as an instance of a
// registered extension type.
func (c *Context) GetTyped(key string, typeName string) (interface{}, error) {
	c.mu.RLock()
	registry := c.types
	c.mu.RUnlock()
	if registry == nil {
		return nil, fmt.Errorf("types not initialized")
	}
	aType := registry.Lookup(typeName)
	if aType == nil {
		return nil, fmt.Errorf("type %v not registered", typeName)
	}
	value, ok := c.Get(key)
	if !ok {
		return nil, fmt.Errorf("context key %q not found", key)
	}
	instance := reflect.New(aType.Type).Interface()
	if err := c.convert(value.Native(), instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func (c *Context) convert(value, target interface{}) error {
	c.mu.Lock()
	if c.converter == nil {
		c.converter = conv.NewConverter(conv.DefaultOptions())
	}
	converter := c.converter
	c.mu.Unlock()
	return converter.Convert(value, target)
}

// ---------------------------------------------------------------------------
// context.Context carriage
// ---------------------------------------------------------------------------

// ContextKey identifies the shared execution context inside a
// context.Context value chain.
var ContextKey = KeyOf[*Context]()

// WithContext embeds the shared execution context into ctx.
func WithContext(ctx context.Context, ec *Context) context.Context {
	return context.WithValue(ctx, ContextKey, ec)
}

// FromContext extracts the shared execution context, or nil when absent.
func FromContext(ctx context.Context) *Context {
	return ContextValue[*Context](ctx)
}

// ContextValue returns the value of the provided type from the context.
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type, used as context key.
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
