// Package nodes carries the built-in node kinds: start, vector_search,
// graph_search, rerank, merge, and llm. Each implements the single node
// capability (input map in, output map out) against its declared port
// schema; the engine knows none of them by name.
package nodes

import (
	"github.com/eleven-am/nodeflow/internal/ports"
)

// Builtins is the registration callback for the built-in node kinds. Hosts
// pass it to discovery alongside any extension callbacks.
func Builtins(reg ports.NodeRegistry) error {
	registrations := []struct {
		schema  ports.NodeSchema
		factory ports.NodeFactory
	}{
		{startSchema(), newStart},
		{vectorSearchSchema(), newVectorSearch},
		{graphSearchSchema(), newGraphSearch},
		{rerankSchema(), newRerank},
		{mergeSchema(), newMerge},
		{llmSchema(), newLLM},
	}

	for _, r := range registrations {
		if err := reg.Register(r.schema, r.factory); err != nil {
			return err
		}
	}
	return nil
}

func stringConfig(config map[string]interface{}, key, fallback string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return fallback
}

func intConfig(config map[string]interface{}, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func floatConfig(config map[string]interface{}, key string, fallback float64) float64 {
	switch v := config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func boolConfig(config map[string]interface{}, key string, fallback bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}
	return fallback
}

func sliceConfig(config map[string]interface{}, key string) []interface{} {
	if v, ok := config[key].([]interface{}); ok {
		return v
	}
	return nil
}

// item normalizes one retrieved document to its map form. Bare strings
// become {"content": s}.
func item(v interface{}) map[string]interface{} {
	switch doc := v.(type) {
	case map[string]interface{}:
		return doc
	case string:
		return map[string]interface{}{"content": doc}
	default:
		return map[string]interface{}{"content": "", "raw": v}
	}
}

func itemContent(doc map[string]interface{}) string {
	s, _ := doc["content"].(string)
	return s
}

func itemScore(doc map[string]interface{}) float64 {
	switch v := doc["score"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
