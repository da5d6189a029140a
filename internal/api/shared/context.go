package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for request context keys
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID on requests and responses
	TraceIDHeader = "X-Trace-ID"
)

// SetTraceID adds a trace ID to the context. An incoming ID is kept when it
// parses as a UUID; otherwise a fresh one is generated.
func SetTraceID(ctx context.Context, incoming string) context.Context {
	traceID := incoming
	if _, err := uuid.Parse(incoming); err != nil {
		traceID = uuid.NewString()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
