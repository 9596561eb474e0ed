// Package workertable persists worker heartbeat and block-report state in
// an embedded badger database. Workers report frequently and in large
// volume (one heartbeat per worker per interval, one block report per
// worker per scan), so this table favors badger's write throughput over
// bbolt's simpler single-writer-page model used for the namespace.
package workertable

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	workerKeyPrefix = "worker:"
	blockKeyPrefix  = "blockreport:"
)

// WorkerRecord is the last-known state of one worker, refreshed on every
// WorkerHeartbeat.
type WorkerRecord struct {
	WorkerID      string
	Address       string
	LastHeartbeat time.Time
	Capacity      int64
	Used          int64
	Healthy       bool
}

// BlockReportRecord is the most recent full block report from a worker.
type BlockReportRecord struct {
	WorkerID  string
	BlockIDs  []string
	ReportedAt time.Time
}

// Table wraps a badger database holding worker and block-report state.
type Table struct {
	db *badger.DB
}

// Open opens (creating if absent) the badger database at dir.
func Open(dir string) (*Table, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Table{db: db}, nil
}

// Close closes the underlying database.
func (t *Table) Close() error {
	return t.db.Close()
}

func workerKey(id string) []byte { return []byte(workerKeyPrefix + id) }
func blockKey(id string) []byte  { return []byte(blockKeyPrefix + id) }

// PutWorker upserts a worker's heartbeat state.
func (t *Table) PutWorker(rec WorkerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal worker record: %w", err)
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(workerKey(rec.WorkerID), data)
	})
}

// GetWorker returns the last-known state for workerID, or ok=false if the
// worker has never reported.
func (t *Table) GetWorker(workerID string) (rec WorkerRecord, ok bool, err error) {
	err = t.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(workerKey(workerID))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, ok, err
}

// ListWorkers returns every known worker record.
func (t *Table) ListWorkers() ([]WorkerRecord, error) {
	var out []WorkerRecord
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(workerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec WorkerRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// PutBlockReport stores the most recent block report for a worker.
func (t *Table) PutBlockReport(rec BlockReportRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal block report: %w", err)
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(rec.WorkerID), data)
	})
}

// GetBlockReport returns the most recent block report for workerID.
func (t *Table) GetBlockReport(workerID string) (rec BlockReportRecord, ok bool, err error) {
	err = t.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(blockKey(workerID))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, ok, err
}
