// Package nodeflow provides a node-based workflow DAG execution engine for
// Go applications.
//
// Nodeflow lets a host compose workflows out of typed nodes wired by data
// edges. It provides:
//   - Strongly-typed port compatibility checking at submission time
//   - Dependency-ordered concurrent execution with a configurable bound
//   - A process-wide node capability registry with startup-only extension
//     discovery
//   - Deterministic partial-failure semantics (fail-fast or per-node
//     continue-on-error with skip cascades)
//   - Per-node execution records and a pluggable observability sink
//
// Basic usage:
//
//	reg := nodeflow.NewRegistry(logger)
//	if err := nodeflow.Discover(reg, logger, nodeflow.Builtins); err != nil {
//	    log.Fatal(err)
//	}
//
//	graph, err := nodeflow.Compile(reg, document, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := nodeflow.NewEngine(reg, nodeflow.Config{})
//	run, err := engine.Execute(ctx, graph, map[string]interface{}{"query": "test"})
package nodeflow

import (
	"context"
	"log/slog"

	"github.com/eleven-am/nodeflow/internal/adapters/engine"
	graphbuilder "github.com/eleven-am/nodeflow/internal/adapters/graph"
	"github.com/eleven-am/nodeflow/internal/adapters/nodes"
	"github.com/eleven-am/nodeflow/internal/adapters/parser"
	"github.com/eleven-am/nodeflow/internal/adapters/registry"
	"github.com/eleven-am/nodeflow/internal/adapters/sink"
	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// Engine schedules and runs validated graphs.
type Engine = engine.Engine

// Graph is the immutable, validated representation of one workflow.
type Graph = domain.Graph

// GraphSpec is the normalized, not yet validated workflow description.
type GraphSpec = domain.GraphSpec

// Run is one execution of a Graph against a specific initial input.
type Run = domain.Run

// NodeRun records one node's execution within one Run.
type NodeRun = domain.NodeRun

// Event is one observable transition emitted by the streaming execute
// variant.
type Event = domain.Event

// PortType is a named data category exchanged between node ports.
type PortType = domain.PortType

// PortDecl declares one named, typed input or output slot on a node.
type PortDecl = domain.PortDecl

// RunContext carries run-scoped globals and metadata into node bodies;
// retrieve it inside Execute with GetRunContext.
type RunContext = domain.RunContext

// Node is the capability every node kind implements.
type Node = ports.Node

// StreamingNode is the iterative produce-many node contract.
type StreamingNode = ports.StreamingNode

// Stream is a lazy sequence of port values produced by a StreamingNode.
type Stream = domain.Stream

// NodeFactory builds a runnable node instance from a config map.
type NodeFactory = ports.NodeFactory

// NodeSchema describes a node type's ports and configuration shape.
type NodeSchema = ports.NodeSchema

// ConfigField declares the shape of one configuration key.
type ConfigField = ports.ConfigField

// Registry maps node-type names to schemas and factories.
type Registry = ports.NodeRegistry

// Extension is a registration callback contributed by an installed
// extension package, invoked once during discovery.
type Extension = ports.Extension

// Sink receives node transition boundaries for persistence and replay.
type Sink = ports.Sink

// ValidationError rejects a graph before any node executes.
type ValidationError = domain.ValidationError

// ValidationIssue attributes one validation failure to a node/edge/port.
type ValidationIssue = domain.ValidationIssue

// RegistrationError reports a duplicate or conflicting registration.
type RegistrationError = domain.RegistrationError

// NodeExecutionError captures a node invocation failure.
type NodeExecutionError = domain.NodeExecutionError

// Run and node statuses.
const (
	RunStatusRunning   = domain.RunStatusRunning
	RunStatusSucceeded = domain.RunStatusSucceeded
	RunStatusFailed    = domain.RunStatusFailed
	RunStatusCancelled = domain.RunStatusCancelled

	NodeStatusSucceeded = domain.NodeStatusSucceeded
	NodeStatusFailed    = domain.NodeStatusFailed
	NodeStatusSkipped   = domain.NodeStatusSkipped
	NodeStatusCancelled = domain.NodeStatusCancelled
)

// Port type names every installation understands.
const (
	TypeAny            = domain.TypeAny
	TypeQuery          = domain.TypeQuery
	TypeDocumentBatch  = domain.TypeDocumentBatch
	TypeChunkBatch     = domain.TypeChunkBatch
	TypeEmbeddingBatch = domain.TypeEmbeddingBatch
	TypeRetrievedItems = domain.TypeRetrievedItems
	TypeChatMessages   = domain.TypeChatMessages
	TypeToolCall       = domain.TypeToolCall
	TypeToolResult     = domain.TypeToolResult
)

// Compatible reports whether an output of type source may feed an input of
// type target: equal names, or either side Any.
func Compatible(source, target PortType) bool {
	return domain.Compatible(source, target)
}

// NewRegistry creates an empty node capability registry.
func NewRegistry(logger *slog.Logger) Registry {
	return registry.NewManager(logger)
}

// Discover runs every extension callback once and seals the registry. Call
// it exactly once at process start, before any graph is validated.
func Discover(reg Registry, logger *slog.Logger, extensions ...Extension) error {
	return registry.Discover(reg, logger, extensions...)
}

// Builtins registers the built-in node kinds (start, vector_search,
// graph_search, rerank, merge, llm).
func Builtins(reg Registry) error {
	return nodes.Builtins(reg)
}

// Parse decodes a workflow document (canvas or legacy format, JSON or
// YAML) into a normalized GraphSpec.
func Parse(document []byte, logger *slog.Logger) (*GraphSpec, error) {
	return parser.New(logger).Parse(document)
}

// Build validates a GraphSpec against the registry and seals it into an
// immutable Graph.
func Build(reg Registry, spec *GraphSpec, logger *slog.Logger) (*Graph, error) {
	return graphbuilder.NewBuilder(reg, logger).Build(spec)
}

// Compile parses and validates a workflow document in one step.
func Compile(reg Registry, document []byte, logger *slog.Logger) (*Graph, error) {
	spec, err := Parse(document, logger)
	if err != nil {
		return nil, err
	}
	return Build(reg, spec, logger)
}

// NewEngine creates an execution engine bound to a sealed registry.
func NewEngine(reg Registry, config Config) *Engine {
	return engine.New(reg, config.Sink, config.engineConfig(), config.Logger)
}

// NewMemorySink creates an in-memory sink recording node transitions in
// execution order.
func NewMemorySink() *sink.Memory {
	return sink.NewMemory()
}

// NewLoggerSink creates a sink writing node transitions to structured logs.
func NewLoggerSink(logger *slog.Logger) *sink.Logger {
	return sink.NewLogger(logger)
}

// NewBadgerSink opens a badger-backed sink persisting node transition
// records at dir; an empty dir keeps the store in memory.
func NewBadgerSink(dir string, logger *slog.Logger) (*sink.Badger, error) {
	return sink.OpenBadger(dir, logger)
}

// NewMultiSink fans transitions out to several sinks in order.
func NewMultiSink(sinks ...Sink) Sink {
	return sink.NewMulti(sinks...)
}

// GetRunContext extracts run metadata (run id, globals) during node
// execution from the context passed to Execute.
func GetRunContext(ctx context.Context) (*RunContext, bool) {
	return domain.GetRunContext(ctx)
}
