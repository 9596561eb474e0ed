// Package dispatch implements the operation dispatcher: the single entry
// point that turns a decoded wire.Message into a reply wire.Message. It
// enforces the leader gate, routes load-job codes to the external load
// service, dispatches everything else through an exhaustive switch over
// rpc.OpCode, and always emits metrics and (when enabled) an audit record
// for every code path except the leader-gate and load-routing early exits.
// The leader gate records only the separate not-leader counter.
package dispatch

import (
	"context"
	"time"

	"github.com/curviron/master/internal/audit"
	"github.com/curviron/master/internal/loadservice"
	"github.com/curviron/master/internal/logger"
	"github.com/curviron/master/internal/metrics"
	"github.com/curviron/master/internal/mount"
	"github.com/curviron/master/internal/namespace"
	"github.com/curviron/master/internal/retrycache"
	"github.com/curviron/master/internal/rpc"
	"github.com/curviron/master/internal/rpc/auth"
	"github.com/curviron/master/internal/rpc/wire"
	"github.com/curviron/master/internal/rpcerr"
	"github.com/curviron/master/internal/worker"
)

// Version is reported by GetMasterInfo. Overridable for tests and builds.
var Version = "dev"

// Dispatcher ties every facade and support package together behind one
// Dispatch entry point. The zero value is not usable; callers build it as a
// struct literal with every facade and IsLeader set.
type Dispatcher struct {
	Namespace *namespace.Facade
	Workers   *worker.Facade
	Mounts    *mount.Facade

	Retry *retrycache.Cache
	Load  *loadservice.Adapter
	Auth  *auth.Verifier

	Metrics *metrics.Metrics
	Audit   audit.Sink

	// AuditEnabled gates whether audit records are written at all. Metrics
	// are always recorded regardless of this flag.
	AuditEnabled bool

	// IsLeader reports whether this instance is the active master. Read
	// once per request before any handler work.
	IsLeader func() bool
}

var loadOpCodes = map[rpc.OpCode]bool{
	rpc.OpSubmitLoadJob:  true,
	rpc.OpGetLoadStatus:  true,
	rpc.OpCancelLoadJob:  true,
	rpc.OpReportLoadTask: true,
}

// Dispatch processes one inbound message and always returns a reply
// message; it never returns a transport-level error. The caller (the
// connection layer) is responsible for writing the reply back.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *wire.Message, remoteAddr string) *wire.Message {
	rc := rpc.NewRpcContext(msg, remoteAddr)

	if d.IsLeader == nil || !d.IsLeader() {
		d.Metrics.ObserveNotLeader(rc.Code.String())
		return errorMessage(rc, rpcerr.NotLeaderErr(rc.Code.String(), remoteAddr))
	}

	if loadOpCodes[rc.Code] {
		return d.dispatchLoad(ctx, rc, msg)
	}

	payload, err := d.dispatchHandler(ctx, rc)
	return d.finish(ctx, rc, payload, err)
}

// dispatchLoad forwards the whole message to the load service adapter.
// Per the dispatcher's design, load routing is an early exit: no metrics
// or audit record is produced here (the leader-gate exit records only its
// not-leader counter).
func (d *Dispatcher) dispatchLoad(ctx context.Context, rc *rpc.RpcContext, msg *wire.Message) *wire.Message {
	if d.Load == nil {
		return errorMessage(rc, rpcerr.ServiceUnavailableErr("load service"))
	}

	payload, err := d.handleLoad(ctx, rc)
	if err != nil {
		return errorMessage(rc, toMasterError(err))
	}
	return &wire.Message{Code: msg.Code, RequestID: msg.RequestID, Payload: payload}
}

// dispatchHandler looks up rc.Code in the closed operation table and
// invokes its handler. An unrecognized code produces an Unsupported error
// that still flows through normal post-processing.
func (d *Dispatcher) dispatchHandler(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	switch rc.Code {
	case rpc.OpMkdir:
		return d.handleMkdir(ctx, rc)
	case rpc.OpCreateFile:
		return d.handleCreateFile(ctx, rc)
	case rpc.OpAppendFile:
		return d.handleAppendFile(ctx, rc)
	case rpc.OpFileStatus:
		return d.handleFileStatus(ctx, rc)
	case rpc.OpAddBlock:
		return d.handleAddBlock(ctx, rc)
	case rpc.OpCompleteFile:
		return d.handleCompleteFile(ctx, rc)
	case rpc.OpExists:
		return d.handleExists(ctx, rc)
	case rpc.OpDelete:
		return d.handleDelete(ctx, rc)
	case rpc.OpRename:
		return d.handleRename(ctx, rc)
	case rpc.OpListStatus:
		return d.handleListStatus(ctx, rc)
	case rpc.OpGetBlockLocations:
		return d.handleGetBlockLocations(ctx, rc)
	case rpc.OpSetAttr:
		return d.handleSetAttr(ctx, rc)
	case rpc.OpSymlink:
		return d.handleSymlink(ctx, rc)
	case rpc.OpMount:
		return d.handleMount(ctx, rc)
	case rpc.OpUnMount:
		return d.handleUnMount(ctx, rc)
	case rpc.OpUpdateMount:
		return d.handleUpdateMount(ctx, rc)
	case rpc.OpGetMountTable:
		return d.handleGetMountTable(ctx, rc)
	case rpc.OpGetMountInfo:
		return d.handleGetMountInfo(ctx, rc)
	case rpc.OpWorkerHeartbeat:
		return d.handleWorkerHeartbeat(ctx, rc)
	case rpc.OpWorkerBlockReport:
		return d.handleWorkerBlockReport(ctx, rc)
	case rpc.OpGetMasterInfo:
		return d.handleGetMasterInfo(ctx, rc)
	default:
		return nil, rpcerr.UnsupportedErr(uint16(rc.Code))
	}
}

// finish performs the post-processing step shared by every code path that
// reaches a handler: metrics, audit, and error shaping into a reply.
func (d *Dispatcher) finish(ctx context.Context, rc *rpc.RpcContext, payload []byte, err error) *wire.Message {
	elapsed := time.Since(rc.StartTime)
	success := err == nil
	d.Metrics.ObserveRequest(rc.Code.String(), success, elapsed)

	var merr *rpcerr.MasterError
	if !success {
		merr = toMasterError(err)
	}

	if d.AuditEnabled && d.Audit != nil {
		errKind := ""
		if merr != nil {
			errKind = merr.Kind.String()
		}
		record := audit.Record{
			RequestID:  rc.RequestID,
			OpCode:     rc.Code.String(),
			Subject:    rc.AuditSubject,
			Subject2:   rc.AuditSubject2,
			RemoteAddr: rc.RemoteAddr,
			Success:    success,
			ErrorKind:  errKind,
			DurationUS: rc.ElapsedUS(),
			Timestamp:  time.Now(),
		}
		if werr := d.Audit.Write(ctx, record); werr != nil {
			logger.WarnCtx(ctx, "audit write failed", "op_code", rc.Code.String(), "error", werr)
		}
	}

	if !success {
		return errorMessage(rc, merr)
	}
	return &wire.Message{Code: uint16(rc.Code), RequestID: rc.RequestID, Payload: payload}
}

func toMasterError(err error) *rpcerr.MasterError {
	if me, ok := rpcerr.As(err); ok {
		return me
	}
	return rpcerr.Wrap(err)
}

// errorMessage builds the reply carrying a MasterError, described per
// spec.md §6 as "a message carrying the original request id, an error
// kind, and a free-form message string."
func errorMessage(rc *rpc.RpcContext, merr *rpcerr.MasterError) *wire.Message {
	payload, err := wire.EncodeHeader(struct {
		Kind    string
		Message string
	}{Kind: merr.Kind.String(), Message: merr.Message})
	if err != nil {
		// Encoding a two-string struct cannot realistically fail; fall back
		// to an empty payload rather than panicking the dispatch path.
		payload = nil
	}
	return &wire.Message{Code: uint16(rc.Code), RequestID: rc.RequestID, Payload: payload}
}

// withRetry runs a mutating handler body under a retry policy: it consults
// the retry cache for a prior outcome, replays it when the policy says to,
// otherwise claims the request ID, runs body, and records the outcome.
func (d *Dispatcher) withRetry(rc *rpc.RpcContext, policy func(retrycache.Entry) retrycache.Decision, body func() ([]byte, error)) ([]byte, error) {
	entry := d.Retry.Lookup(rc.RequestID)
	if entry.Outcome != retrycache.Absent {
		if decision := policy(entry); decision.Replay {
			if decision.Err != nil {
				return nil, decision.Err
			}
			return decision.Reply, nil
		}
	}

	if !d.Retry.Begin(rc.RequestID) {
		return nil, rpcerr.RetryConflictErr(rc.Code.String(), rc.AuditSubject)
	}

	reply, err := body()
	if err != nil {
		merr := toMasterError(err)
		d.Retry.Record(rc.RequestID, nil, merr)
		return nil, merr
	}
	d.Retry.Record(rc.RequestID, reply, nil)
	return reply, nil
}

// withStatusReplay runs a create-once handler body under retrycache.StatusReplay:
// a retry of a request ID that already succeeded skips body entirely and
// calls currentStatus to describe the path's present state, rather than
// returning the bytes the first attempt produced.
func (d *Dispatcher) withStatusReplay(rc *rpc.RpcContext, body func() ([]byte, error), currentStatus func() ([]byte, error)) ([]byte, error) {
	entry := d.Retry.Lookup(rc.RequestID)
	if entry.Outcome != retrycache.Absent {
		if decision := retrycache.StatusReplay(entry); decision.Replay {
			if decision.Err != nil {
				return nil, decision.Err
			}
			return currentStatus()
		}
	}

	if !d.Retry.Begin(rc.RequestID) {
		return nil, rpcerr.RetryConflictErr(rc.Code.String(), rc.AuditSubject)
	}

	reply, err := body()
	if err != nil {
		merr := toMasterError(err)
		d.Retry.Record(rc.RequestID, nil, merr)
		return nil, merr
	}
	d.Retry.Record(rc.RequestID, reply, nil)
	return reply, nil
}
