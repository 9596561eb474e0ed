package retrycache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/curviron/master/internal/rpcerr"
)

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.Equal(t, Absent, c.Lookup(1).Outcome)
	assert.True(t, c.Begin(1))
	assert.False(t, c.IsRetry(1))
	c.Record(1, []byte("x"), nil) // must not panic
	c.Forget(1)                   // must not panic
}

func TestBeginThenRecordSucceeded(t *testing.T) {
	c := New(0, 0)

	assert.True(t, c.Begin(10))
	assert.Equal(t, InProgress, c.Lookup(10).Outcome)

	c.Record(10, []byte("reply"), nil)
	entry := c.Lookup(10)
	assert.Equal(t, Succeeded, entry.Outcome)
	assert.Equal(t, []byte("reply"), entry.Reply)
}

func TestBeginThenRecordFailed(t *testing.T) {
	c := New(0, 0)
	c.Begin(10)

	mErr := rpcerr.New(rpcerr.FacadeError, "boom")
	c.Record(10, nil, mErr)

	entry := c.Lookup(10)
	assert.Equal(t, Failed, entry.Outcome)
	assert.Same(t, mErr, entry.Err)
}

func TestBeginRejectsConcurrentInProgress(t *testing.T) {
	c := New(0, 0)
	assert.True(t, c.Begin(1))
	assert.False(t, c.Begin(1))
}

func TestBeginAllowsReRunAfterTerminalOutcome(t *testing.T) {
	c := New(0, 0)
	c.Begin(1)
	c.Record(1, []byte("ok"), nil)
	assert.True(t, c.Begin(1))
}

func TestTTLExpiry(t *testing.T) {
	c := New(0, time.Millisecond)
	c.Begin(1)
	c.Record(1, []byte("ok"), nil)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, Absent, c.Lookup(1).Outcome)
}

func TestCapacityEviction(t *testing.T) {
	c := New(2, 0)
	c.Begin(1)
	c.Record(1, nil, nil)
	time.Sleep(time.Millisecond)
	c.Begin(2)
	c.Record(2, nil, nil)
	time.Sleep(time.Millisecond)
	c.Begin(3) // should evict request 1, the oldest
	c.Record(3, nil, nil)

	assert.Equal(t, Absent, c.Lookup(1).Outcome)
	assert.Equal(t, Succeeded, c.Lookup(2).Outcome)
	assert.Equal(t, Succeeded, c.Lookup(3).Outcome)
}

func TestForget(t *testing.T) {
	c := New(0, 0)
	c.Begin(1)
	c.Record(1, []byte("ok"), nil)
	c.Forget(1)
	assert.Equal(t, Absent, c.Lookup(1).Outcome)
}

func TestStatusReplayPolicy(t *testing.T) {
	assert.False(t, StatusReplay(Entry{Outcome: Absent}).Replay)
	assert.True(t, StatusReplay(Entry{Outcome: InProgress}).Replay == false)

	d := StatusReplay(Entry{Outcome: Succeeded, Reply: []byte("x")})
	assert.True(t, d.Replay)
	assert.Nil(t, d.Reply, "a successful create must not replay cached bytes; the caller re-queries status")

	mErr := rpcerr.New(rpcerr.FacadeError, "fail")
	d = StatusReplay(Entry{Outcome: Failed, Err: mErr})
	assert.True(t, d.Replay)
	assert.Same(t, mErr, d.Err)
}

func TestSuccessAssertPolicy(t *testing.T) {
	assert.False(t, SuccessAssert(Entry{Outcome: Absent}).Replay)
	assert.False(t, SuccessAssert(Entry{Outcome: Failed}).Replay)

	d := SuccessAssert(Entry{Outcome: Succeeded, Reply: []byte("ok")})
	assert.True(t, d.Replay)
	assert.Equal(t, []byte("ok"), d.Reply)
}

func TestRejectOnRetryPolicy(t *testing.T) {
	assert.False(t, RejectOnRetry(Entry{Outcome: Absent}, "AppendFile", "/x").Replay)

	d := RejectOnRetry(Entry{Outcome: Succeeded}, "AppendFile", "/x")
	assert.True(t, d.Replay)
	assert.Equal(t, rpcerr.RetryConflict, d.Err.Kind)
}

func TestNoRetryDetectionPolicy(t *testing.T) {
	assert.False(t, NoRetryDetection(Entry{Outcome: Succeeded}).Replay)
}
