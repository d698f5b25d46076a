package condition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/model/types"
)

// counting wraps a condition and records how often it was evaluated.
func counting(result bool, calls *int) Condition {
	return func(context.Context, string, map[string]types.Value) (bool, error) {
		*calls++
		return result, nil
	}
}

func TestCombinators(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		cond     Condition
		expected bool
	}{
		{name: "and true", cond: And(Always(), Always()), expected: true},
		{name: "and false", cond: And(Always(), Not(Always())), expected: false},
		{name: "or picks second", cond: Or(Not(Always()), Always()), expected: true},
		{name: "or all false", cond: Or(Not(Always()), Not(Always())), expected: false},
		{name: "not", cond: Not(Always()), expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := tc.cond(ctx, "", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestAnd_ShortCircuit(t *testing.T) {
	var second int
	cond := And(counting(false, new(int)), counting(true, &second))
	ok, err := cond(context.Background(), "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, second, "right operand must not be evaluated")
}

func TestOr_ShortCircuit(t *testing.T) {
	var second int
	cond := Or(counting(true, new(int)), counting(false, &second))
	ok, err := cond(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, second)
}

func TestCombinators_ErrorPropagation(t *testing.T) {
	boom := errors.New("lookup failed")
	failing := Condition(func(context.Context, string, map[string]types.Value) (bool, error) {
		return false, boom
	})
	_, err := And(Always(), failing)(context.Background(), "", nil)
	assert.ErrorIs(t, err, boom)
	_, err = Not(failing)(context.Background(), "", nil)
	assert.ErrorIs(t, err, boom)
}

func TestContains(t *testing.T) {
	ok, err := Contains("weather")(context.Background(), "What's the Weather today?", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Contains("weather")(context.Background(), "stock prices", nil)
	assert.False(t, ok)
}

func TestContextEquals(t *testing.T) {
	snapshot := map[string]types.Value{"tier": types.String("pro")}
	ok, err := ContextEquals("tier", types.String("pro"))(context.Background(), "", snapshot)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = ContextEquals("tier", types.String("free"))(context.Background(), "", snapshot)
	assert.False(t, ok)
}
