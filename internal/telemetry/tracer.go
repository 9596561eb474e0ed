package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for RPC dispatch spans.
const (
	AttrClientAddr = "client.address"
	AttrOpCode     = "rpc.op_code"
	AttrRequestID  = "rpc.request_id"
	AttrSubject    = "rpc.subject"
	AttrSubject2   = "rpc.subject2"
	AttrLeader     = "rpc.is_leader"
	AttrRetry      = "rpc.is_retry"
	AttrSuccess    = "rpc.success"
)

// ClientAddr returns an attribute for the remote client address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// OpCode returns an attribute for the stringified operation code.
func OpCode(code string) attribute.KeyValue {
	return attribute.String(AttrOpCode, code)
}

// RequestID returns an attribute for the client-supplied request id.
func RequestID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrRequestID, id)
}

// Subject returns an attribute for the primary audit subject path.
func Subject(path string) attribute.KeyValue {
	return attribute.String(AttrSubject, path)
}

// Subject2 returns an attribute for the secondary audit subject path (rename/symlink).
func Subject2(path string) attribute.KeyValue {
	return attribute.String(AttrSubject2, path)
}

// IsLeader returns an attribute recording the leader-gate decision.
func IsLeader(leader bool) attribute.KeyValue {
	return attribute.Bool(AttrLeader, leader)
}

// IsRetry returns an attribute recording whether the request id was a retry.
func IsRetry(retry bool) attribute.KeyValue {
	return attribute.Bool(AttrRetry, retry)
}

// Success returns an attribute recording whether the dispatch succeeded.
func Success(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrSuccess, ok)
}

// StartDispatchSpan starts a span around a single RPC dispatch.
func StartDispatchSpan(ctx context.Context, opCode string, requestID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{OpCode(opCode), RequestID(requestID)}, attrs...)
	return StartSpan(ctx, fmt.Sprintf("dispatch.%s", opCode), trace.WithAttributes(allAttrs...))
}

// StartLoadSpan starts a span around a forwarded load-service call.
func StartLoadSpan(ctx context.Context, opCode string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{OpCode(opCode)}, attrs...)
	return StartSpan(ctx, fmt.Sprintf("load.%s", opCode), trace.WithAttributes(allAttrs...))
}
