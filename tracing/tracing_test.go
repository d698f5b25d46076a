package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "composite.run", "INTERNAL")
	assert.NotNil(t, span)

	child, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, child)

	span.WithAttributes(map[string]string{"unit.name": "root"})
	EndSpan(span, errors.New("failed"))
	EndSpan(nil, nil) // must not panic
}
