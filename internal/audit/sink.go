// Package audit records what each handled RPC did, independent of whether
// it succeeded, for operators tracing "who touched this path and when."
// Read-only operations (FileStatus, ListStatus, Exists, ...) are audited
// too; the leader-gate and load-routing exits are not.
package audit

import (
	"context"
	"time"
)

// Record is one audited RPC outcome.
type Record struct {
	RequestID  int64
	OpCode     string
	Subject    string
	Subject2   string
	RemoteAddr string
	Success    bool
	ErrorKind  string
	DurationUS int64
	Timestamp  time.Time
}

// Sink persists or forwards audit records. Write must not block the
// dispatch path for long; slow sinks should buffer internally.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// Multi fans a record out to every sink, continuing past individual
// failures so one broken sink can't silence the others.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, rec Record) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Write(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
