package nodeflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const retrievalWorkflow = `{
	"id": "wf-rag",
	"name": "hybrid retrieval",
	"graph": {
		"nodes": [
			{"id": "start", "type": "start"},
			{
				"id": "vector",
				"type": "vector_search",
				"data": {
					"top_k": 3,
					"documents": [
						"nodeflow executes workflow graphs",
						"ports are typed and checked at submission",
						"unrelated cooking recipe"
					]
				}
			},
			{
				"id": "graph",
				"type": "graph_search",
				"data": {
					"relations": [
						{"source": "nodeflow", "relation": "runs", "target": "graphs"},
						{"source": "graphs", "relation": "contain", "target": "nodes"}
					]
				}
			},
			{"id": "union", "type": "merge"},
			{"id": "answer", "type": "llm"}
		],
		"edges": [
			{"source": "start", "sourceHandle": "query", "target": "vector", "targetHandle": "query"},
			{"source": "start", "sourceHandle": "query", "target": "graph", "targetHandle": "query"},
			{"source": "vector", "sourceHandle": "items", "target": "union", "targetHandle": "items"},
			{"source": "graph", "sourceHandle": "items", "target": "union", "targetHandle": "items"},
			{"source": "union", "sourceHandle": "items", "target": "answer", "targetHandle": "items"}
		]
	},
	"input_schema": [
		{"name": "query", "type": "query", "required": true}
	],
	"output_schema": [
		{"name": "answer", "node": "answer", "port": "text"},
		{"name": "evidence", "node": "union", "port": "items"}
	]
}`

func newSealedRegistry(t *testing.T) Registry {
	t.Helper()
	reg := NewRegistry(nil)
	require.NoError(t, Discover(reg, nil, Builtins))
	return reg
}

func TestEndToEnd_HybridRetrieval(t *testing.T) {
	reg := newSealedRegistry(t)

	graph, err := Compile(reg, []byte(retrievalWorkflow), nil)
	require.NoError(t, err)
	assert.Equal(t, "wf-rag", graph.ID())
	assert.Equal(t, []string{"start"}, graph.EntryNodes())
	assert.Equal(t, []string{"answer"}, graph.SinkNodes())

	mem := NewMemorySink()
	engine := NewEngine(reg, Config{Sink: mem})

	run, err := engine.Execute(context.Background(), graph, map[string]interface{}{
		"query": "how does nodeflow run graphs",
	})
	require.NoError(t, err)

	assert.Equal(t, RunStatusSucceeded, run.Status)
	require.Len(t, run.NodeRuns, 5)
	for _, nr := range run.NodeRuns {
		assert.Equal(t, NodeStatusSucceeded, nr.Status)
	}

	answer, ok := run.Output["answer"].(string)
	require.True(t, ok)
	assert.Contains(t, answer, "how does nodeflow run graphs")
	assert.Contains(t, answer, "nodeflow executes workflow graphs")
	assert.Contains(t, answer, "nodeflow runs graphs")

	evidence, ok := run.Output["evidence"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, evidence)

	// Dependency order held: start first, union only after both searches,
	// answer last.
	starts := mem.Starts()
	require.Len(t, starts, 5)
	assert.Equal(t, "start", starts[0])
	assert.Equal(t, "union", starts[3])
	assert.Equal(t, "answer", starts[4])
}

func TestEndToEnd_ThreeNodeChain(t *testing.T) {
	reg := newSealedRegistry(t)

	graph, err := Compile(reg, []byte(`{
		"id": "wf-chain",
		"graph": {
			"nodes": [
				{"id": "Start", "type": "start"},
				{"id": "Search", "type": "vector_search", "data": {"documents": ["a test document"]}},
				{"id": "Answer", "type": "llm"}
			],
			"edges": [
				{"source": "Start", "sourceHandle": "query", "target": "Search", "targetHandle": "query"},
				{"source": "Search", "sourceHandle": "items", "target": "Answer", "targetHandle": "items"}
			]
		},
		"input_schema": [{"name": "query", "type": "query", "required": true}],
		"output_schema": [{"name": "text", "node": "Answer", "port": "text"}]
	}`), nil)
	require.NoError(t, err)

	run, err := NewEngine(reg, Config{}).Execute(context.Background(), graph, map[string]interface{}{"query": "test"})
	require.NoError(t, err)

	assert.Equal(t, RunStatusSucceeded, run.Status)
	require.Len(t, run.NodeRuns, 3)
	assert.Equal(t, "Start", run.NodeRuns[0].NodeID)
	assert.Equal(t, "Search", run.NodeRuns[1].NodeID)
	assert.Equal(t, "Answer", run.NodeRuns[2].NodeID)

	text, ok := run.Output["text"].(string)
	require.True(t, ok)
	assert.Contains(t, text, "test")
}

func TestEndToEnd_Stream(t *testing.T) {
	reg := newSealedRegistry(t)

	graph, err := Compile(reg, []byte(retrievalWorkflow), nil)
	require.NoError(t, err)

	events := NewEngine(reg, Config{}).ExecuteStream(context.Background(), graph, map[string]interface{}{
		"query": "how does nodeflow run graphs",
	})

	var last Event
	counts := make(map[string]int)
	for ev := range events {
		counts[string(ev.Type)]++
		last = ev
	}

	assert.Equal(t, 1, counts["run_started"])
	assert.Equal(t, 5, counts["node_started"])
	assert.Equal(t, 5, counts["node_completed"])
	assert.Equal(t, 1, counts["run_completed"])

	require.NotNil(t, last.Run)
	assert.Equal(t, RunStatusSucceeded, last.Run.Status)
}

func TestEndToEnd_ValidationFailure(t *testing.T) {
	reg := newSealedRegistry(t)

	_, err := Compile(reg, []byte(`{
		"id": "wf-bad",
		"graph": {
			"nodes": [
				{"id": "start", "type": "start"},
				{"id": "answer", "type": "llm"}
			],
			"edges": [
				{"source": "start", "sourceHandle": "query", "target": "answer", "targetHandle": "items"}
			]
		}
	}`), nil)

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "incompatible port types")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 64, cfg.EventBuffer)

	// Zero-valued fields fall back to defaults when the engine reads them.
	merged := Config{MaxConcurrency: 2}.engineConfig()
	assert.Equal(t, 2, merged.MaxConcurrency)
	assert.Equal(t, 64, merged.EventBuffer)
}
