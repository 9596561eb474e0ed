// Package loadservice forwards the four load-job operations
// (SubmitLoadJob, GetLoadStatus, CancelLoadJob, ReportLoadTask) to the
// external load service that actually schedules cache-warming jobs. The
// master itself holds no load-job state; it is a retrying proxy.
package loadservice

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/curviron/master/internal/logger"
)

// Job describes a load job to submit.
type Job struct {
	ID       string
	Path     string
	Priority int
}

// Status describes the current state of a previously submitted job.
type Status struct {
	ID       string
	State    string // "pending", "running", "done", "failed", "cancelled"
	Progress float64
	Message  string
}

// TaskReport is what a worker reports back about a load task it executed.
type TaskReport struct {
	JobID    string
	WorkerID string
	Success  bool
	Detail   string
}

// LoadRunner is the external load service's API, as seen by the master.
// A concrete implementation dials the real service over gRPC or HTTP; this
// package only owns the retry behavior around it.
type LoadRunner interface {
	Submit(ctx context.Context, job Job) error
	Status(ctx context.Context, jobID string) (Status, error)
	Cancel(ctx context.Context, jobID string) error
	ReportTask(ctx context.Context, report TaskReport) error
}

// Adapter wraps a LoadRunner with exponential-backoff retry so transient
// load-service unavailability does not surface as a dispatch failure for
// every caller.
type Adapter struct {
	svc     LoadRunner
	backoff func() backoff.BackOff
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMaxElapsedTime bounds how long the adapter keeps retrying a single
// call before giving up. Default: 30 seconds.
func WithMaxElapsedTime(d time.Duration) Option {
	return func(a *Adapter) {
		a.backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = d
			return b
		}
	}
}

// NewAdapter builds an Adapter around svc.
func NewAdapter(svc LoadRunner, opts ...Option) *Adapter {
	a := &Adapter{svc: svc}
	a.backoff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 30 * time.Second
		return b
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) retry(ctx context.Context, label string, op func() error) error {
	notify := func(err error, d time.Duration) {
		logger.WarnCtx(ctx, "retrying load service call", "operation", label, "backoff", d, "error", err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(a.backoff(), ctx), notify); err != nil {
		return fmt.Errorf("load service %s: %w", label, err)
	}
	return nil
}

// Submit forwards a SubmitLoadJob request.
func (a *Adapter) Submit(ctx context.Context, job Job) error {
	return a.retry(ctx, "Submit", func() error { return a.svc.Submit(ctx, job) })
}

// Status forwards a GetLoadStatus request.
func (a *Adapter) Status(ctx context.Context, jobID string) (Status, error) {
	var status Status
	err := a.retry(ctx, "Status", func() error {
		s, err := a.svc.Status(ctx, jobID)
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	return status, err
}

// Cancel forwards a CancelLoadJob request.
func (a *Adapter) Cancel(ctx context.Context, jobID string) error {
	return a.retry(ctx, "Cancel", func() error { return a.svc.Cancel(ctx, jobID) })
}

// ReportTask forwards a ReportLoadTask request.
func (a *Adapter) ReportTask(ctx context.Context, report TaskReport) error {
	return a.retry(ctx, "ReportTask", func() error { return a.svc.ReportTask(ctx, report) })
}
