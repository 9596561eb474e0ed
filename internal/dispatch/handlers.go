package dispatch

import (
	"context"

	"github.com/curviron/master/internal/loadservice"
	"github.com/curviron/master/internal/retrycache"
	"github.com/curviron/master/internal/rpc"
	"github.com/curviron/master/internal/rpcerr"
)

// handleMkdir: no retry detection, the facade is idempotent on its own.
func (d *Dispatcher) handleMkdir(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.MkdirRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	if err := d.Namespace.Mkdir(req.Path); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.MkdirResponse{Created: true})
}

// handleCreateFile: status-replay retry policy. On a request ID seen before
// with a terminal success, CreateFile is not re-invoked (it would fail on
// the now-existing path); instead the reply describes the path's current
// status, which may have moved on since the first attempt (blocks added,
// file completed) rather than repeating what was true at creation time.
func (d *Dispatcher) handleCreateFile(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.CreateFileRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	currentStatus := func() ([]byte, error) {
		status, _, err := d.Namespace.FileStatus(req.Path)
		if err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.CreateFileResponse{
			Created:  true,
			Size:     status.Size,
			Mode:     status.Mode,
			Complete: status.Complete,
			IsDir:    status.IsDir,
		})
	}

	return d.withStatusReplay(rc, func() ([]byte, error) {
		if err := d.Namespace.CreateFile(req.Path, req.Mode); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return currentStatus()
	}, currentStatus)
}

// handleAppendFile: reject-on-retry. Appending the same bytes twice would
// corrupt the file, so any repeat of a seen request ID fails outright.
func (d *Dispatcher) handleAppendFile(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.AppendFileRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	policy := func(entry retrycache.Entry) retrycache.Decision {
		return retrycache.RejectOnRetry(entry, "append", req.Path)
	}
	return d.withRetry(rc, policy, func() ([]byte, error) {
		if err := d.Namespace.AppendFile(req.Path, req.BlockIDs, req.AddedSize); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		status, _, err := d.Namespace.FileStatus(req.Path)
		if err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.AppendFileResponse{NewSize: status.Size})
	})
}

// handleFileStatus is read-only: no retry detection.
func (d *Dispatcher) handleFileStatus(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.FileStatusRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	status, ok, err := d.Namespace.FileStatus(req.Path)
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	resp := rpc.FileStatusResponse{Exists: ok}
	if ok {
		resp.IsDir = status.IsDir
		resp.IsSymlink = status.IsSymlink
		resp.Size = status.Size
		resp.Mode = status.Mode
		resp.Complete = status.Complete
	}
	return encode(rc, resp)
}

// handleAddBlock: handler-internal retry policy — the namespace facade's
// AddBlock is itself safe to call again, so the handler passes the request
// through untouched.
func (d *Dispatcher) handleAddBlock(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.AddBlockRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	if err := d.Namespace.AddBlock(req.Path, req.BlockID); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.AddBlockResponse{Added: true})
}

// handleCompleteFile: handler-internal retry policy — CompleteFile is
// idempotent in the facade (re-completing with the same size is a no-op).
func (d *Dispatcher) handleCompleteFile(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.CompleteFileRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	if err := d.Namespace.CompleteFile(req.Path, req.FinalSize); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.CompleteFileResponse{Completed: true})
}

// handleExists is read-only: no retry detection.
func (d *Dispatcher) handleExists(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.ExistsRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	ok, err := d.Namespace.Exists(req.Path)
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.ExistsResponse{Exists: ok})
}

// handleDelete: success-assert retry policy. A retry after a prior success
// replays that success without re-invoking Delete, since the second
// attempt would otherwise fail with "not found".
func (d *Dispatcher) handleDelete(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.DeleteRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	return d.withRetry(rc, retrycache.SuccessAssert, func() ([]byte, error) {
		if err := d.Namespace.Delete(req.Path, req.Recursive); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.DeleteResponse{Deleted: true})
	})
}

// handleRename: success-assert retry policy, audited under both the
// source and destination paths.
func (d *Dispatcher) handleRename(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.RenameRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.OldPath, req.NewPath)

	return d.withRetry(rc, retrycache.SuccessAssert, func() ([]byte, error) {
		if err := d.Namespace.Rename(req.OldPath, req.NewPath); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.RenameResponse{Renamed: true})
	})
}

// handleListStatus is read-only: no retry detection.
func (d *Dispatcher) handleListStatus(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.ListStatusRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	entries, err := d.Namespace.ListStatus(req.Path)
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	out := make([]rpc.ListStatusEntry, len(entries))
	for i, e := range entries {
		out[i] = rpc.ListStatusEntry{Path: e.Path, IsDir: e.IsDir, Size: e.Size, Mode: e.Mode, Complete: e.Complete}
	}
	return encode(rc, rpc.ListStatusResponse{Entries: out})
}

// handleGetBlockLocations is read-only: no retry detection.
func (d *Dispatcher) handleGetBlockLocations(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.GetBlockLocationsRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	blocks, err := d.Namespace.GetBlockLocations(req.Path, d.Workers.Locations)
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	out := make([]rpc.BlockLocations, len(blocks))
	for i, workers := range blocks {
		out[i] = rpc.BlockLocations{Workers: workers}
	}
	return encode(rc, rpc.GetBlockLocationsResponse{Blocks: out})
}

// handleSetAttr: success-assert retry policy.
func (d *Dispatcher) handleSetAttr(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.SetAttrRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Path)

	return d.withRetry(rc, retrycache.SuccessAssert, func() ([]byte, error) {
		if err := d.Namespace.SetAttr(req.Path, req.Mode); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.SetAttrResponse{Updated: true})
	})
}

// handleSymlink: success-assert retry policy, audited under target and
// link path.
func (d *Dispatcher) handleSymlink(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.SymlinkRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.Target, req.Path)

	return d.withRetry(rc, retrycache.SuccessAssert, func() ([]byte, error) {
		if err := d.Namespace.Symlink(req.Path, req.Target); err != nil {
			return nil, rpcerr.Wrap(err)
		}
		return encode(rc, rpc.SymlinkResponse{Created: true})
	})
}

// handleMount: no audit subject per the operation table; mount table edits
// are delegated to the mount facade without retry tracking.
func (d *Dispatcher) handleMount(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.MountRequest](rc)
	if err != nil {
		return nil, err
	}

	if err := d.Mounts.Mount(req.MountPoint, req.Target, req.ReadOnly); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.MountResponse{Mounted: true})
}

// handleUnMount: no audit subject, no retry tracking.
func (d *Dispatcher) handleUnMount(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.UnMountRequest](rc)
	if err != nil {
		return nil, err
	}

	if err := d.Mounts.UnMount(req.MountPoint); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.UnMountResponse{Unmounted: true})
}

// handleUpdateMount is a documented no-op placeholder: it never reaches
// the mount facade. See internal/mount's package doc.
func (d *Dispatcher) handleUpdateMount(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	if _, err := rpc.ParseHeader[rpc.UpdateMountRequest](rc); err != nil {
		return nil, err
	}
	return encode(rc, rpc.UpdateMountResponse{Acknowledged: true})
}

// handleGetMountTable is read-only with no audit subject.
func (d *Dispatcher) handleGetMountTable(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	if _, err := rpc.ParseHeader[rpc.GetMountTableRequest](rc); err != nil {
		return nil, err
	}

	mounts, err := d.Mounts.GetMountTable()
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	out := make([]rpc.MountEntry, len(mounts))
	for i, m := range mounts {
		out[i] = rpc.MountEntry{MountPoint: m.MountPoint, Target: m.Target, ReadOnly: m.ReadOnly}
	}
	return encode(rc, rpc.GetMountTableResponse{Mounts: out})
}

// handleGetMountInfo is read-only but does set an audit subject, unlike
// its sibling mount operations.
func (d *Dispatcher) handleGetMountInfo(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.GetMountInfoRequest](rc)
	if err != nil {
		return nil, err
	}
	rc.SetAudit(req.MountPoint)

	info, ok, err := d.Mounts.GetMountInfo(req.MountPoint)
	if err != nil {
		return nil, rpcerr.Wrap(err)
	}
	resp := rpc.GetMountInfoResponse{Found: ok}
	if ok {
		resp.Target = info.Target
		resp.ReadOnly = info.ReadOnly
	}
	return encode(rc, resp)
}

// handleWorkerHeartbeat: no audit subject, no retry detection. The bearer
// token is verified before the worker table write lock is ever taken.
func (d *Dispatcher) handleWorkerHeartbeat(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.WorkerHeartbeatRequest](rc)
	if err != nil {
		return nil, err
	}
	if err := d.verifyWorkerToken(req.Token, req.WorkerID); err != nil {
		return nil, err
	}

	if err := d.Workers.Heartbeat(req.WorkerID, req.Address, req.Capacity, req.Used); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.WorkerHeartbeatResponse{Acknowledged: true})
}

// handleWorkerBlockReport: no audit subject, no retry detection.
func (d *Dispatcher) handleWorkerBlockReport(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	req, err := rpc.ParseHeader[rpc.WorkerBlockReportRequest](rc)
	if err != nil {
		return nil, err
	}
	if err := d.verifyWorkerToken(req.Token, req.WorkerID); err != nil {
		return nil, err
	}

	if err := d.Workers.BlockReport(req.WorkerID, req.BlockIDs); err != nil {
		return nil, rpcerr.Wrap(err)
	}
	return encode(rc, rpc.WorkerBlockReportResponse{Acknowledged: true})
}

func (d *Dispatcher) verifyWorkerToken(token, workerID string) error {
	if d.Auth == nil {
		return nil
	}
	claims, err := d.Auth.Verify(token)
	if err != nil {
		return rpcerr.Wrap(err)
	}
	if claims.WorkerID != workerID {
		return rpcerr.New(rpcerr.FacadeError, "token worker id %q does not match request worker id %q", claims.WorkerID, workerID)
	}
	return nil
}

// handleGetMasterInfo is read-only with no audit subject. It is only ever
// reached once the leader gate has already passed, so IsLeader is always
// true in the response.
func (d *Dispatcher) handleGetMasterInfo(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	if _, err := rpc.ParseHeader[rpc.GetMasterInfoRequest](rc); err != nil {
		return nil, err
	}
	return encode(rc, rpc.GetMasterInfoResponse{IsLeader: true, Version: Version})
}

// handleLoad forwards SubmitLoadJob/GetLoadStatus/CancelLoadJob/
// ReportLoadTask to the load service adapter. It bypasses the retry cache,
// metrics, and audit entirely: the dispatcher's load-routing step is an
// early exit.
func (d *Dispatcher) handleLoad(ctx context.Context, rc *rpc.RpcContext) ([]byte, error) {
	switch rc.Code {
	case rpc.OpSubmitLoadJob:
		req, err := rpc.ParseHeader[rpc.SubmitLoadJobRequest](rc)
		if err != nil {
			return nil, err
		}
		if err := d.Load.Submit(ctx, loadservice.Job{ID: req.JobID, Path: req.Path, Priority: req.Priority}); err != nil {
			return nil, err
		}
		return encode(rc, rpc.SubmitLoadJobResponse{Accepted: true})

	case rpc.OpGetLoadStatus:
		req, err := rpc.ParseHeader[rpc.GetLoadStatusRequest](rc)
		if err != nil {
			return nil, err
		}
		status, err := d.Load.Status(ctx, req.JobID)
		if err != nil {
			return nil, err
		}
		return encode(rc, rpc.GetLoadStatusResponse{State: status.State, Progress: status.Progress, Message: status.Message})

	case rpc.OpCancelLoadJob:
		req, err := rpc.ParseHeader[rpc.CancelLoadJobRequest](rc)
		if err != nil {
			return nil, err
		}
		if err := d.Load.Cancel(ctx, req.JobID); err != nil {
			return nil, err
		}
		return encode(rc, rpc.CancelLoadJobResponse{Cancelled: true})

	case rpc.OpReportLoadTask:
		req, err := rpc.ParseHeader[rpc.ReportLoadTaskRequest](rc)
		if err != nil {
			return nil, err
		}
		report := loadservice.TaskReport{JobID: req.JobID, WorkerID: req.WorkerID, Success: req.Success, Detail: req.Detail}
		if err := d.Load.ReportTask(ctx, report); err != nil {
			return nil, err
		}
		return encode(rc, rpc.ReportLoadTaskResponse{Acknowledged: true})

	default:
		return nil, rpcerr.UnsupportedErr(uint16(rc.Code))
	}
}

// encode builds a response's wire payload via rpc.Response and returns
// just its bytes, since handler bodies are threaded through withRetry and
// the final dispatcher reply as []byte rather than *wire.Message.
func encode[R any](rc *rpc.RpcContext, resp R) ([]byte, error) {
	msg, err := rpc.Response(rc, resp)
	if err != nil {
		return nil, err
	}
	return msg.Payload, nil
}
