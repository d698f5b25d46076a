package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value string
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &payload{Value: "one"}))
	require.NoError(t, queue.Publish(ctx, &payload{Value: "two"}))
	assert.Equal(t, 2, queue.Size())

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", msg.T().Value)
	require.NoError(t, msg.Ack())
	assert.Error(t, msg.Ack())
}

func TestQueue_NackRequeues(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	queue := NewQueue[payload](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &payload{Value: "retry-me"}))
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("transient")))

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	redelivered, err := queue.Consume(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, "retry-me", redelivered.T().Value)
}

func TestQueue_DeadLetterAfterRetries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 0
	queue := NewQueue[payload](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &payload{Value: "doomed"}))
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("fatal")))
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_ConsumeRespectsContext(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
