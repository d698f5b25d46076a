package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/runtime/execution"
)

func TestFunc_Run(t *testing.T) {
	echo := Text("echo", func(ctx context.Context, input string) (string, error) {
		return input + "!", nil
	})
	result, err := echo.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", result.Output)
	assert.Equal(t, 1, result.Iterations)
}

func TestFunc_RunAfterCancel(t *testing.T) {
	u := Text("noop", func(ctx context.Context, input string) (string, error) {
		return input, nil
	})
	u.Cancel()
	u.Cancel() // idempotent

	_, err := u.Run(context.Background(), "in")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestFunc_Stream(t *testing.T) {
	u := Text("echo", func(ctx context.Context, input string) (string, error) {
		return input, nil
	})
	var seen []execution.EventType
	for event := range u.Stream(context.Background(), "in") {
		seen = append(seen, event.Type)
	}
	assert.Equal(t, []execution.EventType{
		execution.EventStarted,
		execution.EventIterationStarted,
		execution.EventIterationCompleted,
		execution.EventCompleted,
	}, seen)
}

func TestFunc_StreamFailure(t *testing.T) {
	boom := errors.New("boom")
	u := Text("bad", func(ctx context.Context, input string) (string, error) {
		return "", boom
	})
	var last execution.Event
	for event := range u.Stream(context.Background(), "in") {
		last = event
	}
	assert.Equal(t, execution.EventFailed, last.Type)
	assert.ErrorIs(t, last.Err, boom)
}
