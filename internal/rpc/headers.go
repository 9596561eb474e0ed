package rpc

// Typed request and response headers for every operation code. These are
// plain structs, not generated protobuf messages: wire.EncodeHeader and
// wire.DecodeHeader project them onto a structpb.Struct by reflection.

// MkdirRequest and MkdirResponse back OpMkdir.
type MkdirRequest struct {
	Path string
	Mode uint32
}
type MkdirResponse struct {
	Created bool
}

// CreateFileRequest and CreateFileResponse back OpCreateFile.
type CreateFileRequest struct {
	Path string
	Mode uint32
}
type CreateFileResponse struct {
	Created  bool
	Size     int64
	Mode     uint32
	Complete bool
	IsDir    bool
}

// AppendFileRequest and AppendFileResponse back OpAppendFile.
type AppendFileRequest struct {
	Path      string
	BlockIDs  []string
	AddedSize int64
}
type AppendFileResponse struct {
	NewSize int64
}

// FileStatusRequest and FileStatusResponse back OpFileStatus.
type FileStatusRequest struct {
	Path string
}
type FileStatusResponse struct {
	Exists    bool
	IsDir     bool
	IsSymlink string
	Size      int64
	Mode      uint32
	Complete  bool
}

// AddBlockRequest and AddBlockResponse back OpAddBlock.
type AddBlockRequest struct {
	Path    string
	BlockID string
}
type AddBlockResponse struct {
	Added bool
}

// CompleteFileRequest and CompleteFileResponse back OpCompleteFile.
type CompleteFileRequest struct {
	Path      string
	FinalSize int64
}
type CompleteFileResponse struct {
	Completed bool
}

// ExistsRequest and ExistsResponse back OpExists.
type ExistsRequest struct {
	Path string
}
type ExistsResponse struct {
	Exists bool
}

// DeleteRequest and DeleteResponse back OpDelete.
type DeleteRequest struct {
	Path      string
	Recursive bool
}
type DeleteResponse struct {
	Deleted bool
}

// RenameRequest and RenameResponse back OpRename.
type RenameRequest struct {
	OldPath string
	NewPath string
}
type RenameResponse struct {
	Renamed bool
}

// ListStatusRequest and ListStatusResponse back OpListStatus.
type ListStatusRequest struct {
	Path string
}
type ListStatusEntry struct {
	Path     string
	IsDir    bool
	Size     int64
	Mode     uint32
	Complete bool
}
type ListStatusResponse struct {
	Entries []ListStatusEntry
}

// GetBlockLocationsRequest and GetBlockLocationsResponse back
// OpGetBlockLocations.
type GetBlockLocationsRequest struct {
	Path string
}
type BlockLocations struct {
	Workers []string
}
type GetBlockLocationsResponse struct {
	Blocks []BlockLocations
}

// SetAttrRequest and SetAttrResponse back OpSetAttr.
type SetAttrRequest struct {
	Path string
	Mode uint32
}
type SetAttrResponse struct {
	Updated bool
}

// SymlinkRequest and SymlinkResponse back OpSymlink.
type SymlinkRequest struct {
	Path   string
	Target string
}
type SymlinkResponse struct {
	Created bool
}

// MountRequest and MountResponse back OpMount.
type MountRequest struct {
	MountPoint string
	Target     string
	ReadOnly   bool
}
type MountResponse struct {
	Mounted bool
}

// UnMountRequest and UnMountResponse back OpUnMount.
type UnMountRequest struct {
	MountPoint string
}
type UnMountResponse struct {
	Unmounted bool
}

// UpdateMountRequest and UpdateMountResponse back OpUpdateMount. The
// handler for this operation is a documented no-op placeholder; see
// internal/dispatch.
type UpdateMountRequest struct {
	MountPoint string
	Target     string
	ReadOnly   bool
}
type UpdateMountResponse struct {
	Acknowledged bool
}

// GetMountTableRequest and GetMountTableResponse back OpGetMountTable.
type GetMountTableRequest struct{}
type MountEntry struct {
	MountPoint string
	Target     string
	ReadOnly   bool
}
type GetMountTableResponse struct {
	Mounts []MountEntry
}

// GetMountInfoRequest and GetMountInfoResponse back OpGetMountInfo.
type GetMountInfoRequest struct {
	MountPoint string
}
type GetMountInfoResponse struct {
	Found    bool
	Target   string
	ReadOnly bool
}

// WorkerHeartbeatRequest and WorkerHeartbeatResponse back
// OpWorkerHeartbeat.
type WorkerHeartbeatRequest struct {
	WorkerID string
	Address  string
	Token    string
	Capacity int64
	Used     int64
}
type WorkerHeartbeatResponse struct {
	Acknowledged bool
}

// WorkerBlockReportRequest and WorkerBlockReportResponse back
// OpWorkerBlockReport.
type WorkerBlockReportRequest struct {
	WorkerID string
	Token    string
	BlockIDs []string
}
type WorkerBlockReportResponse struct {
	Acknowledged bool
}

// GetMasterInfoRequest and GetMasterInfoResponse back OpGetMasterInfo.
type GetMasterInfoRequest struct{}
type GetMasterInfoResponse struct {
	IsLeader bool
	Version  string
}

// SubmitLoadJobRequest and SubmitLoadJobResponse back OpSubmitLoadJob.
type SubmitLoadJobRequest struct {
	JobID    string
	Path     string
	Priority int
}
type SubmitLoadJobResponse struct {
	Accepted bool
}

// GetLoadStatusRequest and GetLoadStatusResponse back OpGetLoadStatus.
type GetLoadStatusRequest struct {
	JobID string
}
type GetLoadStatusResponse struct {
	State    string
	Progress float64
	Message  string
}

// CancelLoadJobRequest and CancelLoadJobResponse back OpCancelLoadJob.
type CancelLoadJobRequest struct {
	JobID string
}
type CancelLoadJobResponse struct {
	Cancelled bool
}

// ReportLoadTaskRequest and ReportLoadTaskResponse back OpReportLoadTask.
type ReportLoadTaskRequest struct {
	JobID    string
	WorkerID string
	Success  bool
	Detail   string
}
type ReportLoadTaskResponse struct {
	Acknowledged bool
}
