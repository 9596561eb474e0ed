package rpc

import (
	"time"

	"github.com/curviron/master/internal/rpc/wire"
	"github.com/curviron/master/internal/rpcerr"
)

// RpcContext carries one request through the dispatcher and its handler.
// It is created fresh per request and discarded after the reply is built;
// it is not retained across retries (the retry cache, not this struct,
// is what survives between attempts).
type RpcContext struct {
	Code       OpCode
	RequestID  int64
	RemoteAddr string
	StartTime  time.Time

	// AuditSubject and AuditSubject2 name the path(s) the operation acted
	// on, set by the handler via SetAudit. Left empty by operations that
	// have no subject path (their audit record carries empty subjects).
	AuditSubject  string
	AuditSubject2 string

	raw *wire.Message
}

// NewRpcContext builds an RpcContext from a decoded wire message.
func NewRpcContext(msg *wire.Message, remoteAddr string) *RpcContext {
	return &RpcContext{
		Code:       OpCode(msg.Code),
		RequestID:  msg.RequestID,
		RemoteAddr: remoteAddr,
		StartTime:  time.Now(),
		raw:        msg,
	}
}

// ParseHeader decodes the request payload into a typed header H.
func ParseHeader[H any](rc *RpcContext) (H, error) {
	var header H
	if err := wire.DecodeHeader(rc.raw.Payload, &header); err != nil {
		var zero H
		return zero, rpcerr.MalformedErr(rc.Code.String(), err)
	}
	return header, nil
}

// SetAudit records the subject path(s) a handler acted on, for the audit
// sink to pick up after the handler returns. Handlers call it once; Rename
// and Symlink pass a second path as subject2.
func (rc *RpcContext) SetAudit(subject string, subject2 ...string) {
	rc.AuditSubject = subject
	if len(subject2) > 0 {
		rc.AuditSubject2 = subject2[0]
	}
}

// Response encodes a typed response R into a reply wire.Message carrying
// the same request ID and operation code as the request.
func Response[R any](rc *RpcContext, resp R) (*wire.Message, error) {
	payload, err := wire.EncodeHeader(resp)
	if err != nil {
		return nil, rpcerr.New(rpcerr.FacadeError, "encode response for %s: %v", rc.Code, err)
	}
	return &wire.Message{Code: uint16(rc.Code), RequestID: rc.RequestID, Payload: payload}, nil
}

// ElapsedUS returns the time since the context was created, in
// microseconds, for audit records.
func (rc *RpcContext) ElapsedUS() int64 {
	return time.Since(rc.StartTime).Microseconds()
}
