package sink

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/xjson"
)

// Badger persists node transition records so runs survive the process and
// can be replayed later. One record per boundary, keyed by run id and a
// monotonic sequence number so a prefix scan reproduces execution order.
type Badger struct {
	db     *badger.DB
	seq    atomic.Uint64
	logger *slog.Logger
}

func NewBadger(db *badger.DB, logger *slog.Logger) *Badger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Badger{
		db:     db,
		logger: logger.With("component", "badger-sink"),
	}
}

// OpenBadger opens a store at dir. Empty dir opens an in-memory store,
// which tests use.
func OpenBadger(dir string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return NewBadger(db, logger), nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) OnNodeStart(runID, nodeID string, inputs map[string]interface{}) {
	b.store(runID, Record{
		Kind:   RecordStart,
		RunID:  runID,
		NodeID: nodeID,
		Inputs: inputs,
		At:     time.Now(),
	})
}

func (b *Badger) OnNodeEnd(runID, nodeID string, outputs map[string]interface{}, err error, duration time.Duration) {
	rec := Record{
		Kind:     RecordEnd,
		RunID:    runID,
		NodeID:   nodeID,
		Outputs:  outputs,
		Duration: duration,
		At:       time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	b.store(runID, rec)
}

func (b *Badger) store(runID string, rec Record) {
	data, err := xjson.Marshal(rec)
	if err != nil {
		b.logger.Error("failed to marshal record", "run_id", runID, "node_id", rec.NodeID, "error", err)
		return
	}

	key := recordKey(runID, b.seq.Add(1))
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		b.logger.Error("failed to store record", "run_id", runID, "node_id", rec.NodeID, "error", err)
	}
}

// RunRecords returns every persisted record for one run in execution order.
func (b *Badger) RunRecords(runID string) ([]Record, error) {
	var records []Record

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = runPrefix(runID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := xjson.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RunOutputs folds every end-boundary output snapshot of one run into a
// single JSON document under the deep-merge rules, giving replay tooling
// the run's cumulative output without walking individual records.
func (b *Badger) RunOutputs(runID string) (xjson.RawMessage, error) {
	records, err := b.RunRecords(runID)
	if err != nil {
		return nil, err
	}

	var merged xjson.RawMessage
	for _, rec := range records {
		if rec.Kind != RecordEnd || rec.Outputs == nil {
			continue
		}
		snapshot, err := xjson.Marshal(rec.Outputs)
		if err != nil {
			return nil, err
		}
		merged, err = domain.MergeJSON(merged, snapshot)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func runPrefix(runID string) []byte {
	return []byte("run/" + runID + "/")
}

func recordKey(runID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("run/%s/%016d", runID, seq))
}
