package audit

import (
	"context"

	"github.com/curviron/master/internal/logger"
)

// LogSink writes audit records through the structured logger. It is the
// default sink, always available since it has no external dependency.
type LogSink struct{}

// Write implements Sink.
func (LogSink) Write(ctx context.Context, rec Record) error {
	logger.InfoCtx(ctx, "audit",
		"request_id", rec.RequestID,
		"op_code", rec.OpCode,
		"subject", rec.Subject,
		"subject2", rec.Subject2,
		"remote_addr", rec.RemoteAddr,
		"success", rec.Success,
		"error_kind", rec.ErrorKind,
		"duration_us", rec.DurationUS,
	)
	return nil
}
