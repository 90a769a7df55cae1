package logger

import "context"

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	traceIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext extracts the trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the request and trace IDs
// carried by ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		l = l.With("trace_id", traceID)
	}
	return l
}
