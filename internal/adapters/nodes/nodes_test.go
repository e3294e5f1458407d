package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/nodeflow/internal/adapters/registry"
	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

func TestBuiltins_RegisterAll(t *testing.T) {
	reg := registry.NewManager(nil)
	require.NoError(t, Builtins(reg))

	for _, name := range []string{"start", "vector_search", "graph_search", "rerank", "merge", "llm"} {
		assert.True(t, reg.Has(name), "missing builtin %q", name)
	}
}

func runCtx(globals map[string]interface{}) context.Context {
	rc := domain.NewRunContext("run-1", "graph-1", time.Now(), globals)
	return domain.WithRunContext(context.Background(), rc)
}

func items(out map[string]interface{}) []interface{} {
	v, _ := out["items"].([]interface{})
	return v
}

func contentOf(v interface{}) string {
	return itemContent(item(v))
}

func TestStart(t *testing.T) {
	node, err := newStart(nil)
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{"query": "bound"})
	require.NoError(t, err)
	assert.Equal(t, "bound", out["query"])

	// Falls back to the run-scoped global.
	out, err = node.Execute(runCtx(map[string]interface{}{"query": "global"}), nil)
	require.NoError(t, err)
	assert.Equal(t, "global", out["query"])

	_, err = node.Execute(context.Background(), nil)
	assert.EqualError(t, err, "no query bound to start node")
}

func TestVectorSearch(t *testing.T) {
	node, err := newVectorSearch(map[string]interface{}{
		"top_k": 2,
		"documents": []interface{}{
			"the workflow engine runs graphs",
			map[string]interface{}{"id": "d2", "content": "graphs of typed nodes"},
			"unrelated text about cooking",
		},
	})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{"query": "typed graphs"})
	require.NoError(t, err)

	// Both graph documents match; the full-overlap one ranks first and the
	// cooking document falls under the threshold.
	results := items(out)
	require.Len(t, results, 2)

	top := results[0].(map[string]interface{})
	assert.Equal(t, "d2", top["id"])
	assert.Equal(t, 1.0, top["score"])
	assert.Equal(t, 0.5, results[1].(map[string]interface{})["score"])
}

func TestVectorSearch_ThresholdAndOrder(t *testing.T) {
	node, err := newVectorSearch(map[string]interface{}{
		"similarity_threshold": 0.5,
		"documents": []interface{}{
			"alpha beta",
			"alpha beta gamma",
			"delta",
		},
	})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{"query": "alpha beta"})
	require.NoError(t, err)

	results := items(out)
	require.Len(t, results, 2)
	// Equal scores keep corpus order.
	assert.Equal(t, "alpha beta", contentOf(results[0]))
	assert.Equal(t, "alpha beta gamma", contentOf(results[1]))
}

func TestVectorSearch_EmptyQuery(t *testing.T) {
	node, err := newVectorSearch(nil)
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestGraphSearch(t *testing.T) {
	node, err := newGraphSearch(map[string]interface{}{
		"max_depth": 2,
		"relations": []interface{}{
			map[string]interface{}{"source": "engine", "relation": "runs", "target": "graph"},
			map[string]interface{}{"source": "graph", "relation": "contains", "target": "node"},
			map[string]interface{}{"source": "node", "relation": "declares", "target": "port"},
		},
	})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{"query": "what does the engine do"})
	require.NoError(t, err)

	results := items(out)
	require.Len(t, results, 2)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "engine runs graph", first["content"])
	assert.Equal(t, 1.0, first["score"])

	second := results[1].(map[string]interface{})
	assert.Equal(t, "graph contains node", second["content"])
	assert.Equal(t, 0.5, second["score"])
}

func TestRerank(t *testing.T) {
	node, err := newRerank(map[string]interface{}{
		"boost_terms": []interface{}{"engine"},
		"weight":      1.0,
	})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"content": "cooking tips", "score": 0.8},
			map[string]interface{}{"content": "the engine core", "score": 0.3},
		},
	})
	require.NoError(t, err)

	results := items(out)
	require.Len(t, results, 2)
	assert.Equal(t, "the engine core", contentOf(results[0]))
	assert.InDelta(t, 1.3, results[0].(map[string]interface{})["score"], 1e-9)
	assert.Equal(t, "cooking tips", contentOf(results[1]))
}

func TestRerank_TopK(t *testing.T) {
	node, err := newRerank(map[string]interface{}{"top_k": 1})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"content": "a", "score": 0.1},
			map[string]interface{}{"content": "b", "score": 0.9},
		},
	})
	require.NoError(t, err)

	results := items(out)
	require.Len(t, results, 1)
	assert.Equal(t, "b", contentOf(results[0]))
}

func TestMerge_UnionWithDedup(t *testing.T) {
	node, err := newMerge(nil)
	require.NoError(t, err)

	// One batch per feeding edge, in edge-declaration order.
	out, err := node.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			[]interface{}{
				map[string]interface{}{"id": "d1", "content": "first", "score": 0.9},
				map[string]interface{}{"id": "d2", "content": "second"},
			},
			[]interface{}{
				map[string]interface{}{"id": "d1", "content": "first", "metadata": map[string]interface{}{"source": "graph_search"}},
				map[string]interface{}{"id": "d3", "content": "third"},
			},
		},
	})
	require.NoError(t, err)

	results := items(out)
	require.Len(t, results, 3)

	// First occurrence keeps its slot; the duplicate deep-merges into it.
	first := results[0].(map[string]interface{})
	assert.Equal(t, "d1", first["id"])
	assert.Equal(t, 0.9, first["score"])
	metadata, ok := first["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "graph_search", metadata["source"])

	assert.Equal(t, "d2", results[1].(map[string]interface{})["id"])
	assert.Equal(t, "d3", results[2].(map[string]interface{})["id"])
}

func TestMerge_NoDedup(t *testing.T) {
	node, err := newMerge(map[string]interface{}{"deduplicate": false})
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			[]interface{}{map[string]interface{}{"id": "d1"}},
			[]interface{}{map[string]interface{}{"id": "d1"}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, items(out), 2)
}

func TestMerge_UnknownStrategy(t *testing.T) {
	_, err := newMerge(map[string]interface{}{"merge_strategy": "intersection"})
	assert.EqualError(t, err, "unknown merge strategy: intersection")
}

func TestLLM_Render(t *testing.T) {
	node, err := newLLM(nil)
	require.NoError(t, err)

	out, err := node.Execute(context.Background(), map[string]interface{}{
		"query": "what is nodeflow",
		"items": []interface{}{
			map[string]interface{}{"content": "a workflow engine"},
			map[string]interface{}{"content": "with typed ports"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Answer for what is nodeflow: a workflow engine\nwith typed ports", out["text"])
}

func TestLLM_QueryFromGlobals(t *testing.T) {
	node, err := newLLM(map[string]interface{}{"prompt": "{{query}}"})
	require.NoError(t, err)

	out, err := node.Execute(runCtx(map[string]interface{}{"query": "from globals"}), nil)
	require.NoError(t, err)
	assert.Equal(t, "from globals", out["text"])
}

func TestLLM_Stream(t *testing.T) {
	node, err := newLLM(map[string]interface{}{"prompt": "{{query}}"})
	require.NoError(t, err)

	streamer, ok := node.(ports.StreamingNode)
	require.True(t, ok)

	streams, err := streamer.ExecuteStream(context.Background(), map[string]interface{}{"query": "one two three"})
	require.NoError(t, err)
	require.Contains(t, streams, "text")

	chunks, err := domain.CollectStream(context.Background(), streams["text"])
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"one ", "two ", "three"}, chunks)
}
