package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single RPC dispatch.
type LogContext struct {
	TraceID   string // OpenTelemetry trace ID
	SpanID    string // OpenTelemetry span ID
	OpCode    string // stringified operation code
	ClientIP  string // remote client address, without port
	StartTime time.Time
}

// WithContext returns a new context carrying the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a request from the given client address.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOpCode returns a copy of lc with OpCode set.
func (lc *LogContext) WithOpCode(code string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.OpCode = code
	}
	return clone
}

// WithTrace returns a copy of lc with trace/span IDs set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationUs returns the elapsed microseconds since StartTime.
func (lc *LogContext) DurationUs() int64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return time.Since(lc.StartTime).Microseconds()
}
