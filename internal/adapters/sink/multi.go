package sink

import (
	"time"

	"github.com/eleven-am/nodeflow/internal/ports"
)

// Multi fans every transition out to several sinks, preserving order.
type Multi struct {
	sinks []ports.Sink
}

func NewMulti(sinks ...ports.Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) OnNodeStart(runID, nodeID string, inputs map[string]interface{}) {
	for _, s := range m.sinks {
		s.OnNodeStart(runID, nodeID, inputs)
	}
}

func (m *Multi) OnNodeEnd(runID, nodeID string, outputs map[string]interface{}, err error, duration time.Duration) {
	for _, s := range m.sinks {
		s.OnNodeEnd(runID, nodeID, outputs, err, duration)
	}
}
