package domain

import (
	"time"
)

type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventRunCompleted  EventType = "run_completed"
	EventRunError      EventType = "run_error"
	EventNodeStarted   EventType = "node_started"
	EventNodeCompleted EventType = "node_completed"
	EventNodeError     EventType = "node_error"
	EventNodeSkipped   EventType = "node_skipped"
)

// Event is one observable transition during a run. The streaming execute
// variant emits events in the order the transitions actually happen; the
// terminal run event carries the sealed Run.
type Event struct {
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id"`
	NodeID    string                 `json:"node_id,omitempty"`
	NodeType  string                 `json:"node_type,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Run       *Run                   `json:"-"`
}
