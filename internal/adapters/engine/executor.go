package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// execution owns every piece of mutable state for one run. Node statuses
// and recorded outputs are updated only under mu, on a node's completion
// transition, so concurrently executing nodes never write conflicting
// state; sink calls happen inside the same critical section to keep the
// observed transition order identical to the actual one.
type execution struct {
	engine *Engine
	graph  *domain.Graph
	runRec *domain.Run
	rctx   *domain.RunContext
	ctx    context.Context
	cancel context.CancelFunc
	events chan<- domain.Event
	logger *slog.Logger

	mu      sync.Mutex
	status  map[string]domain.NodeStatus
	outputs map[string]map[string]interface{}
	fatal   *domain.NodeExecutionError
}

// settleLevel decides each node's disposition before its ready-group is
// dispatched: runnable, skipped because an upstream dependency failed or
// was skipped, or cancelled because the run is already being torn down.
// Skip and cancel records are finalized here; only runnable ids return.
func (x *execution) settleLevel(level []string) []string {
	x.mu.Lock()
	defer x.mu.Unlock()

	var runnable []string
	for _, nodeID := range level {
		switch {
		case x.ctx.Err() != nil:
			x.recordWithoutExecutionLocked(nodeID, domain.NodeStatusCancelled, "run cancelled before node became ready")
		case x.upstreamBlockedLocked(nodeID):
			x.recordWithoutExecutionLocked(nodeID, domain.NodeStatusSkipped, "upstream dependency failed")
		default:
			runnable = append(runnable, nodeID)
		}
	}
	return runnable
}

// upstreamBlockedLocked reports whether a node can no longer be satisfied:
// some required input port's edge supply is gone. A non-list port loses its
// single feed when that producer failed, was skipped, or was cancelled; a
// list port is lost only when every one of its producers is. A partially
// fed list port still runs with the surviving values.
func (x *execution) upstreamBlockedLocked(nodeID string) bool {
	node, _ := x.graph.Node(nodeID)
	for _, in := range node.Inputs {
		if !in.Required {
			continue
		}
		edges := x.graph.EdgesInto(nodeID, in.Name)
		if len(edges) == 0 {
			continue
		}

		lost := 0
		for _, e := range edges {
			switch x.status[e.Source] {
			case domain.NodeStatusFailed, domain.NodeStatusSkipped, domain.NodeStatusCancelled:
				lost++
			}
		}
		if in.IsList {
			if lost == len(edges) {
				return true
			}
		} else if lost > 0 {
			return true
		}
	}
	return false
}

// recordWithoutExecutionLocked finalizes a node that never ran. The node's
// instance is never constructed and the sink sees no start/end boundary;
// the NodeRun record alone documents the disposition.
func (x *execution) recordWithoutExecutionLocked(nodeID string, status domain.NodeStatus, reason string) {
	node, _ := x.graph.Node(nodeID)
	now := time.Now()
	x.status[nodeID] = status
	x.runRec.NodeRuns = append(x.runRec.NodeRuns, domain.NodeRun{
		ID:          nodeRunID(),
		RunID:       x.runRec.ID,
		NodeID:      nodeID,
		NodeType:    node.Type,
		Status:      status,
		Error:       reason,
		StartedAt:   now,
		CompletedAt: &now,
	})

	x.logger.Debug("node settled without execution", "node_id", nodeID, "status", status, "reason", reason)
	x.emit(domain.Event{
		Type:      domain.EventNodeSkipped,
		RunID:     x.runRec.ID,
		NodeID:    nodeID,
		NodeType:  node.Type,
		Timestamp: now,
		Data:      map[string]interface{}{"status": string(status), "reason": reason},
	})
}

func (x *execution) executeNode(nodeID string) {
	node, _ := x.graph.Node(nodeID)

	// The cancellation contract: a node whose run was cancelled after its
	// group was settled but before its start boundary is never invoked.
	x.mu.Lock()
	if x.ctx.Err() != nil {
		x.recordWithoutExecutionLocked(nodeID, domain.NodeStatusCancelled, "run cancelled before node started")
		x.mu.Unlock()
		return
	}

	inputs := x.resolveInputsLocked(node)

	startedAt := time.Now()
	recordIdx := len(x.runRec.NodeRuns)
	x.status[nodeID] = domain.NodeStatusRunning
	x.runRec.NodeRuns = append(x.runRec.NodeRuns, domain.NodeRun{
		ID:        nodeRunID(),
		RunID:     x.runRec.ID,
		NodeID:    nodeID,
		NodeType:  node.Type,
		Status:    domain.NodeStatusRunning,
		Inputs:    inputs,
		StartedAt: startedAt,
	})
	x.engine.sink.OnNodeStart(x.runRec.ID, nodeID, inputs)
	x.emit(domain.Event{
		Type:      domain.EventNodeStarted,
		RunID:     x.runRec.ID,
		NodeID:    nodeID,
		NodeType:  node.Type,
		Timestamp: startedAt,
		Data:      map[string]interface{}{"inputs": inputs},
	})
	x.mu.Unlock()

	x.logger.Debug("executing node", "node_id", nodeID, "node_type", node.Type)

	outputs, err := x.invoke(node, inputs)
	duration := time.Since(startedAt)

	x.mu.Lock()
	defer x.mu.Unlock()

	completedAt := startedAt.Add(duration)
	record := &x.runRec.NodeRuns[recordIdx]
	record.CompletedAt = &completedAt

	if err == nil {
		record.Status = domain.NodeStatusSucceeded
		record.Outputs = outputs
		x.status[nodeID] = domain.NodeStatusSucceeded
		x.outputs[nodeID] = outputs

		x.logger.Debug("node succeeded", "node_id", nodeID, "duration", duration)
		x.engine.sink.OnNodeEnd(x.runRec.ID, nodeID, outputs, nil, duration)
		x.emit(domain.Event{
			Type:      domain.EventNodeCompleted,
			RunID:     x.runRec.ID,
			NodeID:    nodeID,
			NodeType:  node.Type,
			Timestamp: completedAt,
			Data:      map[string]interface{}{"outputs": outputs},
		})
		return
	}

	if domain.IsCancelled(err) && x.ctx.Err() != nil {
		record.Status = domain.NodeStatusCancelled
		record.Error = err.Error()
		x.status[nodeID] = domain.NodeStatusCancelled

		x.logger.Debug("node cancelled mid-flight", "node_id", nodeID, "duration", duration)
		x.engine.sink.OnNodeEnd(x.runRec.ID, nodeID, nil, err, duration)
		x.emit(domain.Event{
			Type:      domain.EventNodeError,
			RunID:     x.runRec.ID,
			NodeID:    nodeID,
			NodeType:  node.Type,
			Timestamp: completedAt,
			Data:      map[string]interface{}{"error": err.Error(), "cancelled": true},
		})
		return
	}

	execErr := domain.NewNodeExecutionError(nodeID, node.Type, inputs, err)
	record.Status = domain.NodeStatusFailed
	record.Error = err.Error()
	x.status[nodeID] = domain.NodeStatusFailed

	x.logger.Error("node failed",
		"node_id", nodeID,
		"node_type", node.Type,
		"duration", duration,
		"error", err.Error(),
	)

	if !node.ContinueOnError {
		if x.fatal == nil {
			x.fatal = execErr
		}
		// Tear the run down: not-yet-started nodes transition straight to
		// cancelled, running siblings observe ctx at their own suspension
		// points.
		x.cancel()
	}

	x.engine.sink.OnNodeEnd(x.runRec.ID, nodeID, nil, execErr, duration)
	x.emit(domain.Event{
		Type:      domain.EventNodeError,
		RunID:     x.runRec.ID,
		NodeID:    nodeID,
		NodeType:  node.Type,
		Timestamp: completedAt,
		Data:      map[string]interface{}{"error": err.Error(), "continue_on_error": node.ContinueOnError},
	})
}

// invoke constructs the node instance and runs it, preferring the
// streaming contract when the instance offers one. The per-node timeout is
// cancellation scoped to this invocation.
func (x *execution) invoke(node *domain.NodeDefinition, inputs map[string]interface{}) (map[string]interface{}, error) {
	_, factory, err := x.engine.registry.Resolve(node.Type)
	if err != nil {
		return nil, err
	}
	instance, err := factory(node.Config)
	if err != nil {
		return nil, err
	}

	ctx := domain.WithRunContext(x.ctx, x.rctx.ForNode(node.ID))
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	} else if x.engine.config.DefaultNodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.engine.config.DefaultNodeTimeout)
		defer cancel()
	}

	if streamer, ok := instance.(ports.StreamingNode); ok {
		streams, err := streamer.ExecuteStream(ctx, inputs)
		if err != nil {
			return nil, err
		}
		return x.drainStreams(ctx, node, streams)
	}

	return instance.Execute(ctx, inputs)
}

// drainStreams materializes every output stream before the node's terminal
// state is recorded, so downstream consumers never observe a partial
// sequence. List ports keep the full sequence; scalar ports accumulate
// string chunks (chat deltas) by concatenation and otherwise keep the
// final value.
func (x *execution) drainStreams(ctx context.Context, node *domain.NodeDefinition, streams map[string]domain.Stream) (map[string]interface{}, error) {
	outputs := make(map[string]interface{}, len(streams))
	for portName, stream := range streams {
		values, err := domain.CollectStream(ctx, stream)
		if err != nil {
			return nil, err
		}

		decl, _ := node.OutputPort(portName)
		if decl.IsList {
			outputs[portName] = values
			continue
		}

		switch len(values) {
		case 0:
			outputs[portName] = nil
		case 1:
			outputs[portName] = values[0]
		default:
			if joined, ok := joinStrings(values); ok {
				outputs[portName] = joined
			} else {
				outputs[portName] = values[len(values)-1]
			}
		}
	}
	return outputs, nil
}

func joinStrings(values []interface{}) (string, bool) {
	var b strings.Builder
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}
	return b.String(), true
}

// resolveInputsLocked snapshots a node's input-port values: edge-fed values
// from recorded upstream outputs (fan-in collected in edge-declaration
// order), then inline bindings, workflow-input bindings, and declared
// defaults. Run-scoped globals override inline bindings but never an
// edge-fed value.
func (x *execution) resolveInputsLocked(node *domain.NodeDefinition) map[string]interface{} {
	inputs := make(map[string]interface{}, len(node.Inputs))

	for _, in := range node.Inputs {
		edges := x.graph.EdgesInto(node.ID, in.Name)
		if len(edges) > 0 {
			if in.IsList {
				values := make([]interface{}, 0, len(edges))
				for _, e := range edges {
					if v, ok := x.outputs[e.Source][e.SourcePort]; ok {
						values = append(values, v)
					}
				}
				inputs[in.Name] = values
			} else {
				e := edges[0]
				if v, ok := x.outputs[e.Source][e.SourcePort]; ok {
					inputs[in.Name] = v
				}
			}
			continue
		}

		if v, ok := node.InputValues[in.Name]; ok {
			inputs[in.Name] = v
			if g, ok := x.rctx.Global(in.Name); ok {
				inputs[in.Name] = g
			}
		} else if f, ok := x.graph.InputField(in.Name); ok && domain.Compatible(f.Type, in.Type) {
			if g, ok := x.rctx.Global(in.Name); ok {
				inputs[in.Name] = g
			}
		}

		if _, ok := inputs[in.Name]; !ok && in.Default != nil {
			inputs[in.Name] = in.Default
		}
	}

	return inputs
}
