package workertable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func TestPutAndGetWorker(t *testing.T) {
	tbl := openTestTable(t)

	rec := WorkerRecord{WorkerID: "w1", Address: "10.0.0.1:9000", LastHeartbeat: time.Now(), Healthy: true}
	require.NoError(t, tbl.PutWorker(rec))

	got, ok, err := tbl.GetWorker("w1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Address, got.Address)
	assert.True(t, got.Healthy)
}

func TestGetWorkerMissing(t *testing.T) {
	tbl := openTestTable(t)
	_, ok, err := tbl.GetWorker("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListWorkers(t *testing.T) {
	tbl := openTestTable(t)
	require.NoError(t, tbl.PutWorker(WorkerRecord{WorkerID: "w1"}))
	require.NoError(t, tbl.PutWorker(WorkerRecord{WorkerID: "w2"}))

	all, err := tbl.ListWorkers()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBlockReportRoundTrip(t *testing.T) {
	tbl := openTestTable(t)
	rec := BlockReportRecord{WorkerID: "w1", BlockIDs: []string{"b1", "b2"}, ReportedAt: time.Now()}
	require.NoError(t, tbl.PutBlockReport(rec))

	got, ok, err := tbl.GetBlockReport("w1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"b1", "b2"}, got.BlockIDs)
}

func TestGetBlockReportMissing(t *testing.T) {
	tbl := openTestTable(t)
	_, ok, err := tbl.GetBlockReport("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
