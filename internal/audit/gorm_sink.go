package audit

import (
	"context"

	"github.com/curviron/master/internal/auditstore"
)

// GORMSink persists audit records to PostgreSQL through auditstore.
type GORMSink struct {
	store *auditstore.Store
}

// NewGORMSink wraps an already-open auditstore.Store.
func NewGORMSink(store *auditstore.Store) *GORMSink {
	return &GORMSink{store: store}
}

// Write implements Sink.
func (s *GORMSink) Write(ctx context.Context, rec Record) error {
	return s.store.Insert(ctx, &auditstore.AuditRecord{
		RequestID:  rec.RequestID,
		OpCode:     rec.OpCode,
		Subject:    rec.Subject,
		Subject2:   rec.Subject2,
		RemoteAddr: rec.RemoteAddr,
		Success:    rec.Success,
		ErrorKind:  rec.ErrorKind,
		DurationUS: rec.DurationUS,
		CreatedAt:  rec.Timestamp,
	})
}
