package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the dispatcher,
// retry cache, load adapter and facades. Use these keys consistently
// so audit and metrics queries can join on them.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// RPC dispatch
	KeyOpCode    = "op_code"
	KeyRequestID = "request_id"
	KeyLeader    = "is_leader"
	KeyRetry     = "is_retry"

	// Subjects / namespace
	KeyPath    = "path"
	KeyOldPath = "old_path"
	KeyNewPath = "new_path"

	// Client identification
	KeyClientIP   = "client_ip"
	KeyClientHost = "client_host"

	// Operation metadata
	KeyDurationUs = "duration_us"
	KeyError      = "error"
	KeyErrorKind  = "error_kind"
	KeyOperation  = "operation"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// OpCode returns a slog.Attr for the stringified operation code.
func OpCode(code string) slog.Attr {
	return slog.String(KeyOpCode, code)
}

// RequestID returns a slog.Attr for the client-supplied request id.
func RequestID(id int64) slog.Attr {
	return slog.Int64(KeyRequestID, id)
}

// Leader returns a slog.Attr for the leader-gate decision.
func Leader(isLeader bool) slog.Attr {
	return slog.Bool(KeyLeader, isLeader)
}

// Retry returns a slog.Attr for whether a request id was a retry.
func Retry(isRetry bool) slog.Attr {
	return slog.Bool(KeyRetry, isRetry)
}

// Path returns a slog.Attr for a file/directory path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// OldPath returns a slog.Attr for the source path of a rename.
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path of a rename.
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// ClientIP returns a slog.Attr for the client IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientHost returns a slog.Attr for the client hostname.
func ClientHost(host string) slog.Attr {
	return slog.String(KeyClientHost, host)
}

// DurationUs returns a slog.Attr for an operation duration in microseconds.
func DurationUs(us int64) slog.Attr {
	return slog.Int64(KeyDurationUs, us)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for the typed error kind.
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Operation returns a slog.Attr for a sub-operation label.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
