// Package condition defines the predicate contract routing and handoff
// enablement checks depend on, together with short-circuit AND/OR/NOT
// combinators.
package condition

import (
	"context"
	"strings"

	"github.com/flowmesh/flowmesh/model/types"
)

// Condition is a predicate over the raw input and a point-in-time snapshot
// of the shared context store. Implementations may block (remote lookups);
// they must respect ctx cancellation.
type Condition func(ctx context.Context, input string, snapshot map[string]types.Value) (bool, error)

// And evaluates conditions left-to-right, short-circuiting on the first
// false result or error.
func And(conditions ...Condition) Condition {
	return func(ctx context.Context, input string, snapshot map[string]types.Value) (bool, error) {
		for _, cond := range conditions {
			ok, err := cond(ctx, input, snapshot)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Or evaluates conditions left-to-right, short-circuiting on the first
// true result or error.
func Or(conditions ...Condition) Condition {
	return func(ctx context.Context, input string, snapshot map[string]types.Value) (bool, error) {
		for _, cond := range conditions {
			ok, err := cond(ctx, input, snapshot)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not negates a condition; errors pass through unchanged.
func Not(cond Condition) Condition {
	return func(ctx context.Context, input string, snapshot map[string]types.Value) (bool, error) {
		ok, err := cond(ctx, input, snapshot)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// Always matches every input.
func Always() Condition {
	return func(context.Context, string, map[string]types.Value) (bool, error) {
		return true, nil
	}
}

// Contains matches when the input contains the substring, case-insensitive.
func Contains(substring string) Condition {
	needle := strings.ToLower(substring)
	return func(_ context.Context, input string, _ map[string]types.Value) (bool, error) {
		return strings.Contains(strings.ToLower(input), needle), nil
	}
}

// HasPrefix matches when the input starts with the prefix.
func HasPrefix(prefix string) Condition {
	return func(_ context.Context, input string, _ map[string]types.Value) (bool, error) {
		return strings.HasPrefix(input, prefix), nil
	}
}

// ContextEquals matches when the snapshot holds the given key with a value
// equal to want.
func ContextEquals(key string, want types.Value) Condition {
	return func(_ context.Context, _ string, snapshot map[string]types.Value) (bool, error) {
		got, ok := snapshot[key]
		return ok && got.Equal(want), nil
	}
}
