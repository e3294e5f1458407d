// Package sink carries observability sink implementations for the hosting
// collaborator: an in-memory recorder, a slog-backed logger, a badger-backed
// persistent store, and a fan-out combinator. The engine only ever sees the
// Sink interface.
package sink

import (
	"sync"
	"time"
)

type RecordKind string

const (
	RecordStart RecordKind = "start"
	RecordEnd   RecordKind = "end"
)

// Record is one observed node transition boundary.
type Record struct {
	Kind     RecordKind             `json:"kind"`
	RunID    string                 `json:"run_id"`
	NodeID   string                 `json:"node_id"`
	Inputs   map[string]interface{} `json:"inputs,omitempty"`
	Outputs  map[string]interface{} `json:"outputs,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Duration time.Duration          `json:"duration,omitempty"`
	At       time.Time              `json:"at"`
}

// Memory keeps every transition in arrival order. Because the engine calls
// sinks synchronously at each boundary, the slice reproduces the exact
// execution order; tests and replay tooling lean on that.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) OnNodeStart(runID, nodeID string, inputs map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, Record{
		Kind:   RecordStart,
		RunID:  runID,
		NodeID: nodeID,
		Inputs: inputs,
		At:     time.Now(),
	})
}

func (m *Memory) OnNodeEnd(runID, nodeID string, outputs map[string]interface{}, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

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
	m.records = append(m.records, rec)
}

func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Starts returns the node ids of start boundaries in observed order.
func (m *Memory) Starts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, r := range m.records {
		if r.Kind == RecordStart {
			out = append(out, r.NodeID)
		}
	}
	return out
}
