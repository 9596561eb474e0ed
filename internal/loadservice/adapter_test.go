package loadservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	failuresBeforeSuccess int
	calls                 int
	lastJob               Job
	lastReport            TaskReport
}

func (f *fakeRunner) Submit(_ context.Context, job Job) error {
	f.calls++
	f.lastJob = job
	if f.calls <= f.failuresBeforeSuccess {
		return errors.New("transient")
	}
	return nil
}

func (f *fakeRunner) Status(_ context.Context, jobID string) (Status, error) {
	f.calls++
	if f.calls <= f.failuresBeforeSuccess {
		return Status{}, errors.New("transient")
	}
	return Status{ID: jobID, State: "running"}, nil
}

func (f *fakeRunner) Cancel(_ context.Context, _ string) error {
	f.calls++
	return nil
}

func (f *fakeRunner) ReportTask(_ context.Context, report TaskReport) error {
	f.calls++
	f.lastReport = report
	return nil
}

func TestSubmitSucceedsAfterTransientFailures(t *testing.T) {
	runner := &fakeRunner{failuresBeforeSuccess: 2}
	a := NewAdapter(runner, WithMaxElapsedTime(time.Second))

	err := a.Submit(context.Background(), Job{ID: "job-1", Path: "/data"})
	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, "job-1", runner.lastJob.ID)
}

func TestSubmitGivesUpAfterMaxElapsedTime(t *testing.T) {
	runner := &fakeRunner{failuresBeforeSuccess: 1000}
	a := NewAdapter(runner, WithMaxElapsedTime(20*time.Millisecond))

	err := a.Submit(context.Background(), Job{ID: "job-1"})
	assert.Error(t, err)
}

func TestStatusForwardsResult(t *testing.T) {
	runner := &fakeRunner{}
	a := NewAdapter(runner, WithMaxElapsedTime(time.Second))

	status, err := a.Status(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Equal(t, "job-2", status.ID)
	assert.Equal(t, "running", status.State)
}

func TestCancelForwards(t *testing.T) {
	runner := &fakeRunner{}
	a := NewAdapter(runner, WithMaxElapsedTime(time.Second))
	require.NoError(t, a.Cancel(context.Background(), "job-3"))
	assert.Equal(t, 1, runner.calls)
}

func TestReportTaskForwards(t *testing.T) {
	runner := &fakeRunner{}
	a := NewAdapter(runner, WithMaxElapsedTime(time.Second))

	report := TaskReport{JobID: "job-4", WorkerID: "worker-1", Success: true}
	require.NoError(t, a.ReportTask(context.Background(), report))
	assert.Equal(t, report, runner.lastReport)
}

func TestSubmitRespectsCancelledContext(t *testing.T) {
	runner := &fakeRunner{failuresBeforeSuccess: 1000}
	a := NewAdapter(runner, WithMaxElapsedTime(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Submit(ctx, Job{ID: "job-5"})
	assert.Error(t, err)
}
