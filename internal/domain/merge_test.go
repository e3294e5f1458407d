package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"
)

func TestMergeValues_Objects(t *testing.T) {
	base := map[string]interface{}{
		"id":      "doc-1",
		"score":   0.4,
		"sources": []interface{}{"vector"},
		"metadata": map[string]interface{}{
			"lang": "en",
		},
	}
	override := map[string]interface{}{
		"score":   0.9,
		"sources": []interface{}{"graph"},
		"metadata": map[string]interface{}{
			"depth": 2,
		},
	}

	merged, err := MergeValues(base, override)
	require.NoError(t, err)

	result, ok := merged.(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "doc-1", result["id"])
	assert.Equal(t, 0.9, result["score"])
	assert.Equal(t, []interface{}{"vector", "graph"}, result["sources"])

	metadata, ok := result["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "en", metadata["lang"])
	assert.Equal(t, 2, metadata["depth"])
}

func TestMergeValues_ObjectsDoNotMutateBase(t *testing.T) {
	base := map[string]interface{}{"score": 0.4}
	override := map[string]interface{}{"score": 0.9}

	_, err := MergeValues(base, override)
	require.NoError(t, err)

	assert.Equal(t, 0.4, base["score"])
}

func TestMergeValues_Arrays(t *testing.T) {
	base := []interface{}{"a", "b"}
	override := []interface{}{"c"}

	merged, err := MergeValues(base, override)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b", "c"}, merged)
}

func TestMergeValues_ScalarReplaces(t *testing.T) {
	tests := []struct {
		name     string
		base     interface{}
		override interface{}
	}{
		{name: "string over string", base: "old", override: "new"},
		{name: "scalar over object", base: map[string]interface{}{"k": "v"}, override: "new"},
		{name: "object over scalar", base: "old", override: map[string]interface{}{"k": "v"}},
		{name: "nil override wins", base: "old", override: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := MergeValues(tt.base, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.override, merged)
		})
	}
}

func TestMergeJSON(t *testing.T) {
	current := json.RawMessage(`{"status":"running","results":{"search":["a"]}}`)
	update := json.RawMessage(`{"status":"done","results":{"search":["b"],"rerank":["c"]}}`)

	merged, err := MergeJSON(current, update)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &result))

	assert.Equal(t, "done", result["status"])
	results, ok := result["results"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, results["search"])
	assert.Equal(t, []interface{}{"c"}, results["rerank"])
}

func TestMergeJSON_EmptySides(t *testing.T) {
	doc := json.RawMessage(`{"k":"v"}`)

	merged, err := MergeJSON(nil, doc)
	require.NoError(t, err)
	assert.Equal(t, doc, merged)

	merged, err = MergeJSON(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, doc, merged)
}

func TestMergeJSON_Malformed(t *testing.T) {
	_, err := MergeJSON(json.RawMessage(`{broken`), json.RawMessage(`{}`))
	assert.Error(t, err)
}
