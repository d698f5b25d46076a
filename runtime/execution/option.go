package execution

import "github.com/flowmesh/flowmesh/extension"

// Option customises a new execution context.
type Option func(*Context)

// WithTypes attaches an extension type registry so stored values can be
// retrieved in typed form.
func WithTypes(types *extension.Types) Option {
	return func(c *Context) {
		c.types = types
	}
}
