package ports

import (
	"time"
)

// Sink receives node transition boundaries during a run. The engine calls
// it synchronously, in the order the transitions actually happen, so a
// hosting collaborator can persist or replay execution without the engine
// depending on any storage technology.
type Sink interface {
	OnNodeStart(runID, nodeID string, inputs map[string]interface{})
	OnNodeEnd(runID, nodeID string, outputs map[string]interface{}, err error, duration time.Duration)
}

// NoopSink satisfies Sink and discards everything.
type NoopSink struct{}

func (NoopSink) OnNodeStart(string, string, map[string]interface{}) {}

func (NoopSink) OnNodeEnd(string, string, map[string]interface{}, error, time.Duration) {}
