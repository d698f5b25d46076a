package composite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/condition"
	"github.com/flowmesh/flowmesh/model/types"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/unit"
)

func newWeatherRouter(counters map[string]*int) *Router {
	counting := func(name, output string) unit.Unit {
		return unit.Text(name, func(context.Context, string) (string, error) {
			if counters != nil {
				*counters[name]++
			}
			return output, nil
		})
	}
	return NewRouter("dispatch", []Route{
		{Condition: condition.Contains("weather"), Unit: counting("weather", "sunny with a chance of rain")},
		{Condition: condition.Contains("news"), Unit: counting("news", "headlines of the day")},
	}, WithFallback(counting("general", "let me help with that")))
}

func TestRouter_FirstMatchWins(t *testing.T) {
	weatherRuns, newsRuns, generalRuns := 0, 0, 0
	router := newWeatherRouter(map[string]*int{
		"weather": &weatherRuns, "news": &newsRuns, "general": &generalRuns,
	})

	result, err := router.Run(context.Background(), "what's the WEATHER like?")
	require.NoError(t, err)
	assert.EqualValues(t, "sunny with a chance of rain", result.Output)
	matched, _ := result.Metadata["matched_route"].Text()
	assert.Equal(t, "weather", matched)
	routeCount, _ := result.Metadata["route_count"].Int()
	assert.Equal(t, 2, routeCount)
	// Exactly one unit ran.
	assert.Equal(t, 1, weatherRuns)
	assert.Equal(t, 0, newsRuns)
	assert.Equal(t, 0, generalRuns)
}

func TestRouter_FallbackWhenNoMatch(t *testing.T) {
	generalRuns := 0
	weatherRuns, newsRuns := 0, 0
	router := newWeatherRouter(map[string]*int{
		"weather": &weatherRuns, "news": &newsRuns, "general": &generalRuns,
	})

	result, err := router.Run(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.EqualValues(t, "let me help with that", result.Output)
	matched, _ := result.Metadata["matched_route"].Text()
	assert.Equal(t, "fallback", matched)
	assert.Equal(t, 1, generalRuns)
}

func TestRouter_NoMatchNoFallback(t *testing.T) {
	router := NewRouter("dispatch", []Route{
		{Condition: condition.Contains("weather"), Unit: unit.Text("weather", func(_ context.Context, input string) (string, error) {
			return input, nil
		})},
	})

	_, err := router.Run(context.Background(), "tell me a joke")
	var routingErr *RoutingError
	assert.ErrorAs(t, err, &routingErr)
}

func TestRouter_DeclaredOrderPrecedence(t *testing.T) {
	router := NewRouter("dispatch", []Route{
		{Name: "broad", Condition: condition.Contains("a"), Unit: unit.Text("broad", func(context.Context, string) (string, error) {
			return "broad", nil
		})},
		{Name: "narrow", Condition: condition.Contains("abc"), Unit: unit.Text("narrow", func(context.Context, string) (string, error) {
			return "narrow", nil
		})},
	})

	// Both conditions match; the earlier route wins.
	result, err := router.Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.EqualValues(t, "broad", result.Output)
}

func TestRouter_ConditionErrorAborts(t *testing.T) {
	lookupErr := errors.New("lookup unavailable")
	var laterEvaluated bool
	router := NewRouter("dispatch", []Route{
		{Name: "remote", Condition: func(context.Context, string, map[string]types.Value) (bool, error) {
			return false, lookupErr
		}, Unit: unit.Text("remote", func(_ context.Context, input string) (string, error) {
			return input, nil
		})},
		{Name: "later", Condition: func(context.Context, string, map[string]types.Value) (bool, error) {
			laterEvaluated = true
			return true, nil
		}, Unit: unit.Text("later", func(_ context.Context, input string) (string, error) {
			return input, nil
		})},
	})

	_, err := router.Run(context.Background(), "in")
	assert.Equal(t, lookupErr, err)
	assert.False(t, laterEvaluated)
}

func TestRouter_ContextDrivenRouting(t *testing.T) {
	ec := execution.NewContext("run-1", "in")
	ec.Set("tier", types.String("premium"))
	ctx := execution.WithContext(context.Background(), ec)

	router := NewRouter("dispatch", []Route{
		{Name: "premium", Condition: condition.ContextEquals("tier", types.String("premium")), Unit: unit.Text("premium", func(context.Context, string) (string, error) {
			return "white glove", nil
		})},
	}, WithFallback(unit.Text("standard", func(context.Context, string) (string, error) {
		return "queue ticket", nil
	})))

	result, err := router.Run(ctx, "help")
	require.NoError(t, err)
	assert.EqualValues(t, "white glove", result.Output)
}

func TestRouter_NameDefaultsToUnitName(t *testing.T) {
	router := NewRouter("dispatch", []Route{
		{Condition: condition.Always(), Unit: unit.Text("echo", func(_ context.Context, input string) (string, error) {
			return input, nil
		})},
	})

	result, err := router.Run(context.Background(), "hello")
	require.NoError(t, err)
	matched, _ := result.Metadata["matched_route"].Text()
	assert.Equal(t, "echo", matched)
}

func TestRouter_Empty(t *testing.T) {
	router := NewRouter("dispatch", nil)
	_, err := router.Run(context.Background(), "in")
	assert.ErrorIs(t, err, unit.ErrNoUnits)
}

func TestRouter_Stream(t *testing.T) {
	router := newWeatherRouter(nil)

	var events []execution.Event
	for event := range router.Stream(context.Background(), "weather please") {
		events = append(events, event)
	}
	require.Len(t, events, 4)
	assert.Equal(t, execution.EventStarted, events[0].Type)
	assert.Equal(t, execution.EventIterationStarted, events[1].Type)
	assert.Equal(t, execution.EventIterationCompleted, events[2].Type)
	assert.Equal(t, execution.EventCompleted, events[3].Type)
}
