// Package worker implements the facade backing WorkerHeartbeat and
// WorkerBlockReport: it tracks which workers are alive and which blocks
// each one holds, and answers the namespace facade's block-location
// lookups during GetBlockLocations.
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/curviron/master/internal/store/workertable"
)

// Info is the caller-facing view of a worker's last-known state.
type Info struct {
	WorkerID      string
	Address       string
	LastHeartbeat time.Time
	Capacity      int64
	Used          int64
	Healthy       bool
}

// Facade tracks worker liveness and block ownership. It keeps an
// in-memory block-to-workers index for the GetBlockLocations hot path,
// refreshed from WorkerBlockReport and rebuilt from the table on startup.
type Facade struct {
	table *workertable.Table

	mu            sync.RWMutex
	blockToWorker map[string]map[string]struct{}
}

// New builds a Facade backed by table, replaying any previously reported
// block ownership into the in-memory index.
func New(table *workertable.Table) (*Facade, error) {
	f := &Facade{table: table, blockToWorker: make(map[string]map[string]struct{})}

	workers, err := table.ListWorkers()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	for _, w := range workers {
		report, ok, err := table.GetBlockReport(w.WorkerID)
		if err != nil {
			return nil, fmt.Errorf("get block report for %s: %w", w.WorkerID, err)
		}
		if ok {
			f.indexReportLocked(report)
		}
	}
	return f, nil
}

func (f *Facade) indexReportLocked(report workertable.BlockReportRecord) {
	for _, blockID := range report.BlockIDs {
		set, ok := f.blockToWorker[blockID]
		if !ok {
			set = make(map[string]struct{})
			f.blockToWorker[blockID] = set
		}
		set[report.WorkerID] = struct{}{}
	}
}

// Heartbeat records a worker's liveness and capacity. It holds the
// facade's write lock for the table write only and releases it on return,
// before the caller builds its reply.
func (f *Facade) Heartbeat(workerID, address string, capacity, used int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table.PutWorker(workertable.WorkerRecord{
		WorkerID:      workerID,
		Address:       address,
		LastHeartbeat: time.Now(),
		Capacity:      capacity,
		Used:          used,
		Healthy:       true,
	})
}

// BlockReport records the full set of blocks a worker currently holds,
// replacing whatever was known before (workers report their complete
// inventory, not a delta).
func (f *Facade) BlockReport(workerID string, blockIDs []string) error {
	if err := f.table.PutBlockReport(workertable.BlockReportRecord{
		WorkerID: workerID, BlockIDs: blockIDs, ReportedAt: time.Now(),
	}); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for blockID, set := range f.blockToWorker {
		delete(set, workerID)
		if len(set) == 0 {
			delete(f.blockToWorker, blockID)
		}
	}
	f.indexReportLocked(workertable.BlockReportRecord{WorkerID: workerID, BlockIDs: blockIDs})
	return nil
}

// Locations returns the worker IDs currently known to hold blockID.
func (f *Facade) Locations(blockID string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	set, ok := f.blockToWorker[blockID]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for workerID := range set {
		out = append(out, workerID)
	}
	return out, nil
}

// Info returns the last-known state of workerID.
func (f *Facade) Info(workerID string) (Info, bool, error) {
	rec, ok, err := f.table.GetWorker(workerID)
	if err != nil || !ok {
		return Info{}, ok, err
	}
	return Info{
		WorkerID:      rec.WorkerID,
		Address:       rec.Address,
		LastHeartbeat: rec.LastHeartbeat,
		Capacity:      rec.Capacity,
		Used:          rec.Used,
		Healthy:       rec.Healthy,
	}, true, nil
}

// List returns every known worker.
func (f *Facade) List() ([]Info, error) {
	recs, err := f.table.ListWorkers()
	if err != nil {
		return nil, err
	}
	out := make([]Info, len(recs))
	for i, rec := range recs {
		out[i] = Info{
			WorkerID:      rec.WorkerID,
			Address:       rec.Address,
			LastHeartbeat: rec.LastHeartbeat,
			Capacity:      rec.Capacity,
			Used:          rec.Used,
			Healthy:       rec.Healthy,
		}
	}
	return out, nil
}
