package loadservice

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCRunner is the LoadRunner that actually talks to the external load
// service. Each RPC is a single protobuf struct in, single protobuf struct
// out call: the load service's own schema isn't owned by this module, so
// requests and replies travel as structpb.Struct rather than generated
// message types, the same projection internal/rpc/wire uses for headers.
type GRPCRunner struct {
	conn *grpc.ClientConn
}

const (
	methodSubmit     = "/curvine.loadservice.LoadService/Submit"
	methodStatus     = "/curvine.loadservice.LoadService/Status"
	methodCancel     = "/curvine.loadservice.LoadService/Cancel"
	methodReportTask = "/curvine.loadservice.LoadService/ReportTask"
)

// DialGRPC opens a connection to the load service at target. The caller
// owns the returned runner's lifetime and must Close it on shutdown.
func DialGRPC(target string) (*GRPCRunner, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial load service %s: %w", target, err)
	}
	return &GRPCRunner{conn: conn}, nil
}

// Close releases the underlying connection.
func (r *GRPCRunner) Close() error {
	return r.conn.Close()
}

func (r *GRPCRunner) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	out := &structpb.Struct{}
	if err := r.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit implements LoadRunner.
func (r *GRPCRunner) Submit(ctx context.Context, job Job) error {
	_, err := r.call(ctx, methodSubmit, map[string]any{
		"id":       job.ID,
		"path":     job.Path,
		"priority": float64(job.Priority),
	})
	return err
}

// Status implements LoadRunner.
func (r *GRPCRunner) Status(ctx context.Context, jobID string) (Status, error) {
	out, err := r.call(ctx, methodStatus, map[string]any{"id": jobID})
	if err != nil {
		return Status{}, err
	}
	fields := out.AsMap()
	return Status{
		ID:       jobID,
		State:    stringField(fields, "state"),
		Progress: floatField(fields, "progress"),
		Message:  stringField(fields, "message"),
	}, nil
}

// Cancel implements LoadRunner.
func (r *GRPCRunner) Cancel(ctx context.Context, jobID string) error {
	_, err := r.call(ctx, methodCancel, map[string]any{"id": jobID})
	return err
}

// ReportTask implements LoadRunner.
func (r *GRPCRunner) ReportTask(ctx context.Context, report TaskReport) error {
	_, err := r.call(ctx, methodReportTask, map[string]any{
		"job_id":    report.JobID,
		"worker_id": report.WorkerID,
		"success":   report.Success,
		"detail":    report.Detail,
	})
	return err
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}
