// Package engine schedules and runs validated graphs: it walks the
// ready-group partition, dispatches independent nodes concurrently under a
// configurable bound, propagates values along edges, and seals a Run with
// one NodeRun record per node.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

type Engine struct {
	registry ports.NodeRegistry
	sink     ports.Sink
	config   domain.EngineConfig
	logger   *slog.Logger
}

var _ ports.WorkflowEngine = (*Engine)(nil)

func New(registry ports.NodeRegistry, sink ports.Sink, config domain.EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = ports.NoopSink{}
	}

	return &Engine{
		registry: registry,
		sink:     sink,
		config:   config.WithDefaults(),
		logger:   logger.With("component", "workflow-engine"),
	}
}

// Execute runs a graph to a terminal status. The returned error is non-nil
// only when the run was rejected before any node executed (for example a
// missing required workflow input); node failures are recorded on the Run.
func (e *Engine) Execute(ctx context.Context, graph *domain.Graph, input map[string]interface{}) (*domain.Run, error) {
	exec, err := e.newExecution(ctx, graph, input, nil)
	if err != nil {
		return nil, err
	}
	return exec.run(), nil
}

// ExecuteStream runs a graph and emits transition events as they occur.
// The channel is closed after the terminal event, which carries the sealed
// Run. A rejected submission yields a single run_error event whose data
// holds the validation failure.
//
// The caller must drain the channel until it closes. Events are delivered
// synchronously from the scheduler: once the buffer (EngineConfig.
// EventBuffer) fills, node state transitions block until the consumer
// catches up, and an abandoned channel stalls the run.
func (e *Engine) ExecuteStream(ctx context.Context, graph *domain.Graph, input map[string]interface{}) <-chan domain.Event {
	events := make(chan domain.Event, e.config.EventBuffer)

	exec, err := e.newExecution(ctx, graph, input, events)
	if err != nil {
		go func() {
			defer close(events)
			events <- domain.Event{
				Type:      domain.EventRunError,
				Timestamp: time.Now(),
				Data:      map[string]interface{}{"error": err.Error()},
			}
		}()
		return events
	}

	go func() {
		defer close(events)
		exec.run()
	}()
	return events
}

func (e *Engine) newExecution(ctx context.Context, graph *domain.Graph, input map[string]interface{}, events chan<- domain.Event) (*execution, error) {
	if err := checkInitialInput(graph, input); err != nil {
		e.logger.Debug("run rejected", "graph_id", graph.ID(), "error", err)
		return nil, err
	}

	globals := make(map[string]interface{}, len(input))
	for _, f := range graph.Inputs() {
		if f.Default != nil {
			globals[f.Name] = f.Default
		}
	}
	for k, v := range input {
		globals[k] = v
	}

	now := time.Now()
	run := &domain.Run{
		ID:        uuid.NewString(),
		GraphID:   graph.ID(),
		Status:    domain.RunStatusRunning,
		Input:     input,
		StartedAt: now,
	}

	runCtx, cancel := context.WithCancel(ctx)

	return &execution{
		engine:  e,
		graph:   graph,
		runRec:  run,
		rctx:    domain.NewRunContext(run.ID, graph.ID(), now, globals),
		ctx:     runCtx,
		cancel:  cancel,
		events:  events,
		status:  make(map[string]domain.NodeStatus, len(graph.NodeIDs())),
		outputs: make(map[string]map[string]interface{}),
		logger:  e.logger.With("run_id", run.ID, "graph_id", graph.ID()),
	}, nil
}

// checkInitialInput rejects a run whose required workflow inputs are
// absent, collecting every missing field in one pass.
func checkInitialInput(graph *domain.Graph, input map[string]interface{}) error {
	var issues []domain.ValidationIssue
	for _, f := range graph.Inputs() {
		if !f.Required || f.Default != nil {
			continue
		}
		if _, ok := input[f.Name]; !ok {
			issues = append(issues, domain.ValidationIssue{
				Port:    f.Name,
				Message: "missing required workflow input",
			})
		}
	}
	if len(issues) > 0 {
		return &domain.ValidationError{Issues: issues}
	}
	return nil
}

// run drives the level partition to completion and seals the Run.
func (x *execution) run() *domain.Run {
	defer x.cancel()

	x.logger.Info("run started", "nodes", len(x.graph.NodeIDs()))
	x.emit(domain.Event{
		Type:      domain.EventRunStarted,
		RunID:     x.runRec.ID,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"graph_name": x.graph.Name()},
	})

	for _, level := range x.graph.Levels() {
		runnable := x.settleLevel(level)
		if len(runnable) == 0 {
			continue
		}

		var group errgroup.Group
		group.SetLimit(x.engine.config.MaxConcurrency)
		for _, nodeID := range runnable {
			nodeID := nodeID
			group.Go(func() error {
				x.executeNode(nodeID)
				return nil
			})
		}
		// Workers record their own outcomes; the group only joins them.
		_ = group.Wait()
	}

	return x.seal()
}

func (x *execution) seal() *domain.Run {
	x.mu.Lock()
	defer x.mu.Unlock()

	now := time.Now()
	x.runRec.CompletedAt = &now

	switch {
	case x.fatal != nil:
		x.runRec.Status = domain.RunStatusFailed
		x.runRec.Error = x.fatal.Error()
	case x.ctx.Err() != nil:
		x.runRec.Status = domain.RunStatusCancelled
		x.runRec.Error = domain.ErrCancelled.Error()
	default:
		x.runRec.Status = domain.RunStatusSucceeded
		x.runRec.Output = x.collectOutputLocked()
	}

	x.logger.Info("run finished",
		"status", x.runRec.Status,
		"duration", now.Sub(x.runRec.StartedAt),
		"node_runs", len(x.runRec.NodeRuns),
	)

	eventType := domain.EventRunCompleted
	data := map[string]interface{}{}
	if x.runRec.Status != domain.RunStatusSucceeded {
		eventType = domain.EventRunError
		data["error"] = x.runRec.Error
	}
	x.emit(domain.Event{
		Type:      eventType,
		RunID:     x.runRec.ID,
		Timestamp: now,
		Data:      data,
		Run:       x.runRec,
	})

	return x.runRec
}

// collectOutputLocked assembles the workflow-level output from the
// graph's output bindings. Bindings whose producer did not succeed are
// omitted rather than reported as nil.
func (x *execution) collectOutputLocked() map[string]interface{} {
	out := make(map[string]interface{})
	for _, binding := range x.graph.Outputs() {
		if x.status[binding.Node] != domain.NodeStatusSucceeded {
			continue
		}
		node, _ := x.graph.Node(binding.Node)
		port := binding.Port
		if port == "" {
			if sole, ok := node.SoleOutput(); ok {
				port = sole.Name
			}
		}
		if v, ok := x.outputs[binding.Node][port]; ok {
			out[binding.Name] = v
		}
	}
	return out
}

func (x *execution) emit(event domain.Event) {
	if x.events == nil {
		return
	}
	x.events <- event
}

func nodeRunID() string {
	return fmt.Sprintf("nr-%s", uuid.NewString())
}
