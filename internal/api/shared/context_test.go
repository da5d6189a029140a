package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx, "")

	traceID := GetTraceID(ctxWithTrace)
	require.NotEmpty(t, traceID)
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err, "generated trace ID should be a UUID")
	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
}

func TestSetTraceIDKeepsIncomingUUID(t *testing.T) {
	incoming := uuid.NewString()

	ctx := SetTraceID(context.Background(), incoming)

	assert.Equal(t, incoming, GetTraceID(ctx))
}

func TestSetTraceIDReplacesMalformedInput(t *testing.T) {
	ctx := SetTraceID(context.Background(), "not a uuid\nforged=log")

	traceID := GetTraceID(ctx)
	assert.NotEqual(t, "not a uuid\nforged=log", traceID)
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string

	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}
