package composite

import (
	"fmt"
	"strings"

	"github.com/flowmesh/flowmesh/runtime/execution"
)

// BranchResult pairs a parallel branch name with its successful result.
type BranchResult struct {
	Name   string
	Result *execution.Result
}

// MergeFunc combines branch results in declared order into a single output.
type MergeFunc func(results []BranchResult) (string, error)

type mergeKind int

const (
	mergeConcatenate mergeKind = iota
	mergeFirst
	mergeLongest
	mergeStructured
	mergeCustom
)

// MergeStrategy decides how a parallel composite combines its successful
// branch outputs.  The zero value concatenates with a blank line separator.
type MergeStrategy struct {
	kind      mergeKind
	separator string
	custom    MergeFunc
}

// MergeConcatenate joins branch outputs with the separator, in declared
// order.
func MergeConcatenate(separator string) MergeStrategy {
	return MergeStrategy{kind: mergeConcatenate, separator: separator}
}

// MergeFirst returns the output of whichever branch completed earliest.
// This is inherently completion-order dependent: branches finishing near
// simultaneously make the winner nondeterministic.
func MergeFirst() MergeStrategy { return MergeStrategy{kind: mergeFirst} }

// MergeLongest picks the branch with the largest output, ties broken by
// declared order.
func MergeLongest() MergeStrategy { return MergeStrategy{kind: mergeLongest} }

// MergeStructured renders one "## <name>" section per branch, in declared
// order.
func MergeStructured() MergeStrategy { return MergeStrategy{kind: mergeStructured} }

// MergeCustom delegates to the supplied function, which receives the full
// ordered branch list.
func MergeCustom(fn MergeFunc) MergeStrategy {
	return MergeStrategy{kind: mergeCustom, custom: fn}
}

// String returns the strategy name recorded in composite metadata.
func (m MergeStrategy) String() string {
	switch m.kind {
	case mergeConcatenate:
		return "concatenate"
	case mergeFirst:
		return "first"
	case mergeLongest:
		return "longest"
	case mergeStructured:
		return "structured"
	case mergeCustom:
		return "custom"
	}
	return "unknown"
}

// apply combines the successful branches. ordered holds successes in
// declared order; earliest is the success that completed first.
func (m MergeStrategy) apply(ordered []BranchResult, earliest *BranchResult) (string, error) {
	if len(ordered) == 0 {
		return "", &MergeError{Strategy: m.String(), Reason: "no successful branches to merge"}
	}
	switch m.kind {
	case mergeConcatenate:
		separator := m.separator
		if separator == "" {
			separator = "\n\n"
		}
		parts := make([]string, len(ordered))
		for i, branch := range ordered {
			parts[i] = branch.Result.Output
		}
		return strings.Join(parts, separator), nil
	case mergeFirst:
		if earliest == nil {
			earliest = &ordered[0]
		}
		return earliest.Result.Output, nil
	case mergeLongest:
		best := ordered[0]
		for _, branch := range ordered[1:] {
			if len(branch.Result.Output) > len(best.Result.Output) {
				best = branch
			}
		}
		return best.Result.Output, nil
	case mergeStructured:
		sections := make([]string, len(ordered))
		for i, branch := range ordered {
			sections[i] = fmt.Sprintf("## %s\n%s", branch.Name, branch.Result.Output)
		}
		return strings.Join(sections, "\n\n"), nil
	case mergeCustom:
		if m.custom == nil {
			return "", &MergeError{Strategy: m.String(), Reason: "no merge function supplied"}
		}
		output, err := m.custom(ordered)
		if err != nil {
			return "", &MergeError{Strategy: m.String(), Reason: "merge function failed", Err: err}
		}
		return output, nil
	}
	return "", &MergeError{Strategy: m.String(), Reason: "unsupported strategy"}
}
