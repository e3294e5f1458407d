package domain

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusSucceeded NodeStatus = "succeeded"
	NodeStatusFailed    NodeStatus = "failed"
	// NodeStatusSkipped marks a node that never executed because a node it
	// strictly depends on failed or was itself skipped.
	NodeStatusSkipped NodeStatus = "skipped"
	// NodeStatusCancelled marks a node that never executed because the run
	// was cancelled or failed before the node became ready.
	NodeStatusCancelled NodeStatus = "cancelled"
)

// Terminal reports whether a node status is final.
func (s NodeStatus) Terminal() bool {
	switch s {
	case NodeStatusSucceeded, NodeStatusFailed, NodeStatusSkipped, NodeStatusCancelled:
		return true
	}
	return false
}

// NodeRun records one node's execution within one workflow run. It is
// created when the engine begins the node and finalized exactly once.
type NodeRun struct {
	ID          string                 `json:"id"`
	RunID       string                 `json:"run_id"`
	NodeID      string                 `json:"node_id"`
	NodeType    string                 `json:"node_type"`
	Status      NodeStatus             `json:"status"`
	Inputs      map[string]interface{} `json:"inputs,omitempty"`
	Outputs     map[string]interface{} `json:"outputs,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

func (nr *NodeRun) Duration() time.Duration {
	if nr.CompletedAt == nil {
		return 0
	}
	return nr.CompletedAt.Sub(nr.StartedAt)
}

// Run is one execution of a Graph against a specific initial input. It is
// sealed by the engine when execution terminates; the NodeRuns slice
// preserves each node's start-time ordering.
type Run struct {
	ID          string                 `json:"id"`
	GraphID     string                 `json:"graph_id"`
	Status      RunStatus              `json:"status"`
	Input       map[string]interface{} `json:"input,omitempty"`
	Output      map[string]interface{} `json:"output,omitempty"`
	NodeRuns    []NodeRun              `json:"node_runs"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// NodeRun returns the record for one node id, if present.
func (r *Run) NodeRun(nodeID string) (NodeRun, bool) {
	for _, nr := range r.NodeRuns {
		if nr.NodeID == nodeID {
			return nr, true
		}
	}
	return NodeRun{}, false
}

// NodesWithStatus returns the node ids whose record carries the given
// status, in start-time order.
func (r *Run) NodesWithStatus(status NodeStatus) []string {
	var out []string
	for _, nr := range r.NodeRuns {
		if nr.Status == status {
			out = append(out, nr.NodeID)
		}
	}
	return out
}
