package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the structured logging contract shared by every layer. Calls take
// key/value pairs, must be safe for concurrent use, and pick up the
// correlation ID stored in ctx. Common fields:
//   - correlation_id (UUIDv4, generated per CLI command)
//   - layer (domain|application|infrastructure)
//   - component (installer, syncer, registry, selfconfig, ...)
//   - window_id / url / path for plugin operations
//   - duration_ms for timed operations
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches id to ctx so downstream logs can be correlated.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID extracts a correlation ID from context, or "" when none is set.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID returns a new UUIDv4 string.
func GenerateCorrelationID() string {
	return uuid.NewString()
}
