package composite

import (
	"fmt"
	"strings"
)

// RoutingError is returned when no route condition matched and no fallback
// was configured.
type RoutingError struct {
	Reason string
}

// Error implements error.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %s", e.Reason)
}

// MergeError is returned when a merge strategy cannot combine the branch
// results.
type MergeError struct {
	Strategy string
	Reason   string
	Err      error
}

// Error implements error.
func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("merge strategy %s failed: %s: %v", e.Strategy, e.Reason, e.Err)
	}
	return fmt.Sprintf("merge strategy %s failed: %s", e.Strategy, e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *MergeError) Unwrap() error { return e.Err }

// BranchError pairs a failed parallel branch with its error.
type BranchError struct {
	Name string
	Err  error
}

// AggregateError is returned when every branch of a parallel group failed.
// It carries every branch's error in declared order.
type AggregateError struct {
	Branches []BranchError
}

// Error implements error.
func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Branches))
	for _, b := range e.Branches {
		parts = append(parts, fmt.Sprintf("%s: %v", b.Name, b.Err))
	}
	return fmt.Sprintf("all units failed: %s", strings.Join(parts, "; "))
}

// Unwrap exposes the branch errors for errors.Is/As matching.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Branches))
	for i, b := range e.Branches {
		errs[i] = b.Err
	}
	return errs
}
