// Package dao defines the generic storage contract run records persist
// through, with sentinel errors callers detect via errors.Is.
package dao

import "context"

// Service is a generic keyed store.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Parameter is a simple name/value filter for List operations.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a list filter.
func NewParameter(name string, value interface{}) *Parameter {
	return &Parameter{Name: name, Value: value}
}
