package composite

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/unit"
)

func echoBranch(name, output string) NamedUnit {
	return NamedUnit{Name: name, Unit: unit.Text(name, func(context.Context, string) (string, error) {
		return output, nil
	})}
}

func slowBranch(name, output string, delay time.Duration) NamedUnit {
	return NamedUnit{Name: name, Unit: unit.Text(name, func(ctx context.Context, _ string) (string, error) {
		select {
		case <-time.After(delay):
			return output, nil
		case <-ctx.Done():
			return "", unit.ErrCancelled
		}
	})}
}

func failingBranch(name string, err error) NamedUnit {
	return NamedUnit{Name: name, Unit: unit.Text(name, func(context.Context, string) (string, error) {
		return "", err
	})}
}

func TestParallel_StructuredMerge(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		slowBranch("a", "alpha", 30*time.Millisecond),
		echoBranch("b", "beta"),
	}, WithMergeStrategy(MergeStructured()))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	// Declared order regardless of completion order.
	assert.EqualValues(t, "## a\nalpha\n\n## b\nbeta", result.Output)
	assert.True(t, result.Metadata["agent_count"].Equal(types.Int(2)))
	assert.True(t, result.Metadata["success_count"].Equal(types.Int(2)))
	assert.True(t, result.Metadata["error_count"].Equal(types.Int(0)))
}

func TestParallel_ConcatenateDeclaredOrder(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		slowBranch("first", "one", 40*time.Millisecond),
		slowBranch("second", "two", 20*time.Millisecond),
		echoBranch("third", "three"),
	}, WithMergeStrategy(MergeConcatenate(" | ")))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.EqualValues(t, "one | two | three", result.Output)
}

func TestParallel_MergeFirstCompletionOrder(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		slowBranch("slow", "slow-out", 50*time.Millisecond),
		echoBranch("fast", "fast-out"),
	}, WithMergeStrategy(MergeFirst()))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.EqualValues(t, "fast-out", result.Output)
}

func TestParallel_MergeLongest(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("a", "short"),
		echoBranch("b", "considerably longer output"),
	}, WithMergeStrategy(MergeLongest()))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.EqualValues(t, "considerably longer output", result.Output)
}

func TestParallel_MergeCustom(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("a", "x"),
		echoBranch("b", "y"),
	}, WithMergeStrategy(MergeCustom(func(results []BranchResult) (string, error) {
		return results[1].Result.Output + results[0].Result.Output, nil
	})))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.EqualValues(t, "yx", result.Output)
}

func TestParallel_MergeCustomFailure(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("a", "x"),
	}, WithMergeStrategy(MergeCustom(func([]BranchResult) (string, error) {
		return "", errors.New("cannot combine")
	})))

	_, err := par.Run(context.Background(), "in")
	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Equal(t, "custom", mergeErr.Strategy)
}

func TestParallel_FailFast(t *testing.T) {
	boom := errors.New("branch exploded")
	par := NewParallel("group", []NamedUnit{
		slowBranch("slow", "never", 5*time.Second),
		failingBranch("bad", boom),
	}, WithErrorPolicy(ErrorPolicyFailFast))

	started := time.Now()
	result, err := par.Run(context.Background(), "in")
	assert.Nil(t, result)
	assert.Equal(t, boom, err)
	// The slow branch must have been cancelled, not waited out.
	assert.Less(t, time.Since(started), time.Second)
}

func TestParallel_ContinueOnPartialFailure(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("ok", "fine"),
		failingBranch("bad", errors.New("nope")),
	})

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.EqualValues(t, "fine", result.Output)
	assert.True(t, result.Metadata["agent_count"].Equal(types.Int(2)))
	assert.True(t, result.Metadata["success_count"].Equal(types.Int(1)))
	assert.True(t, result.Metadata["error_count"].Equal(types.Int(1)))
}

func TestParallel_CollectErrorsMetadata(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("ok", "fine"),
		failingBranch("bad", errors.New("nope")),
	}, WithErrorPolicy(ErrorPolicyCollect))

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	collected, ok := result.Metadata["parallel.errors"].Array()
	require.True(t, ok)
	require.Len(t, collected, 1)
	text, _ := collected[0].Text()
	assert.EqualValues(t, "bad: nope", text)
}

func TestParallel_AllFailed(t *testing.T) {
	first := errors.New("first failure")
	second := errors.New("second failure")
	par := NewParallel("group", []NamedUnit{
		failingBranch("a", first),
		failingBranch("b", second),
	})

	_, err := par.Run(context.Background(), "in")
	var aggregate *AggregateError
	require.ErrorAs(t, err, &aggregate)
	require.Len(t, aggregate.Branches, 2)
	// Declared order.
	assert.Equal(t, "a", aggregate.Branches[0].Name)
	assert.Equal(t, "b", aggregate.Branches[1].Name)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestParallel_NoBranches(t *testing.T) {
	par := NewParallel("empty", nil)
	_, err := par.Run(context.Background(), "in")
	assert.ErrorIs(t, err, unit.ErrNoUnits)
}

func TestParallel_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	branch := func(name string) NamedUnit {
		return NamedUnit{Name: name, Unit: unit.Text(name, func(context.Context, string) (string, error) {
			now := running.Add(1)
			for {
				observed := peak.Load()
				if now <= observed || peak.CompareAndSwap(observed, now) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return name, nil
		})}
	}
	par := NewParallel("group", []NamedUnit{
		branch("a"), branch("b"), branch("c"), branch("d"),
	}, WithConcurrencyLimit(2))

	_, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestParallel_BranchMetadataNamespaced(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		{Name: "left", Unit: unit.NewFunc("left", func(context.Context, string) (*execution.Result, error) {
			result := execution.NewResult("L")
			result.Metadata["model"] = types.String("alpha")
			return result, nil
		})},
		{Name: "right", Unit: unit.NewFunc("right", func(context.Context, string) (*execution.Result, error) {
			result := execution.NewResult("R")
			result.Metadata["model"] = types.String("beta")
			return result, nil
		})},
	})

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	assert.True(t, result.Metadata["parallel.left.model"].Equal(types.String("alpha")))
	assert.True(t, result.Metadata["parallel.right.model"].Equal(types.String("beta")))
	// Branch keys never collide at the top level.
	_, present := result.Metadata["model"]
	assert.False(t, present)
}

func TestParallel_CancelBeforeRun(t *testing.T) {
	par := NewParallel("group", []NamedUnit{echoBranch("a", "x")})
	par.Cancel()
	_, err := par.Run(context.Background(), "in")
	assert.ErrorIs(t, err, unit.ErrCancelled)
}

func TestParallel_Completeness(t *testing.T) {
	par := NewParallel("group", []NamedUnit{
		echoBranch("a", "1"),
		failingBranch("b", errors.New("x")),
		echoBranch("c", "3"),
		failingBranch("d", errors.New("y")),
	})

	result, err := par.Run(context.Background(), "in")
	require.NoError(t, err)
	success, _ := result.Metadata["success_count"].Int()
	failed, _ := result.Metadata["error_count"].Int()
	assert.EqualValues(t, 4, success+failed)
}
