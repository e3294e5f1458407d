package domain

import (
	"context"
	"time"
)

// RunContext carries run-scoped metadata and the global variables bound
// from the initial input. One value is created per run and passed by
// reference to every node invocation; nodes must treat it as read-only.
type RunContext struct {
	RunID     string
	GraphID   string
	NodeID    string
	StartedAt time.Time

	globals map[string]interface{}
}

func NewRunContext(runID, graphID string, startedAt time.Time, globals map[string]interface{}) *RunContext {
	cp := make(map[string]interface{}, len(globals))
	for k, v := range globals {
		cp[k] = v
	}
	return &RunContext{
		RunID:     runID,
		GraphID:   graphID,
		StartedAt: startedAt,
		globals:   cp,
	}
}

// Global returns one run-scoped variable bound from the initial input.
func (rc *RunContext) Global(name string) (interface{}, bool) {
	v, ok := rc.globals[name]
	return v, ok
}

// Globals returns a copy of all run-scoped variables.
func (rc *RunContext) Globals() map[string]interface{} {
	cp := make(map[string]interface{}, len(rc.globals))
	for k, v := range rc.globals {
		cp[k] = v
	}
	return cp
}

// ForNode derives a view of the run context scoped to one node invocation.
// The globals map is shared; it is never written after construction.
func (rc *RunContext) ForNode(nodeID string) *RunContext {
	return &RunContext{
		RunID:     rc.RunID,
		GraphID:   rc.GraphID,
		NodeID:    nodeID,
		StartedAt: rc.StartedAt,
		globals:   rc.globals,
	}
}

type contextKey string

const runContextKey contextKey = "nodeflow:run_context"

func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey, rc)
}

// GetRunContext extracts run metadata during node execution. Nodes call
// this from their Execute body to reach the run id and global variables.
func GetRunContext(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(runContextKey).(*RunContext)
	return rc, ok
}
