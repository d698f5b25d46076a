package extension

import (
	"github.com/viant/x"
)

// Types is a registry of host-provided Go types. Units and handoff filters
// can store arbitrary structures in the shared execution context as tagged
// dictionaries; registering the Go type here lets callers retrieve them in
// typed form via execution.Context.GetTyped.
type Types struct {
	x.Registry
}

// Register adds a data type to the registry.
func (t *Types) Register(dataType *x.Type) {
	t.Registry.Register(dataType)
}

// Lookup returns a registered type by its name or nil when absent.
func (t *Types) Lookup(name string) *x.Type {
	return t.Registry.Lookup(name)
}

// NewTypes creates a new type registry.
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}
