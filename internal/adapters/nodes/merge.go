package nodes

import (
	"context"
	"fmt"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// mergeNode unions the item batches arriving on its fan-in port. The items
// port is merge-capable: the engine hands over one batch per feeding edge,
// in edge-declaration order, and the union preserves that ordering. With
// deduplication on, later duplicates deep-merge into the first occurrence
// so metadata from every retrieval path survives.
type mergeNode struct {
	strategy    string
	deduplicate bool
}

func mergeSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "merge",
		Label:    "Merge",
		Category: "Control",
		Inputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems, IsList: true, Required: true},
		},
		Outputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems},
		},
		Config: []ports.ConfigField{
			{Name: "merge_strategy", Type: domain.FieldString, Default: "union"},
			{Name: "deduplicate", Type: domain.FieldBoolean, Default: true},
		},
	}
}

func newMerge(config map[string]interface{}) (ports.Node, error) {
	strategy := stringConfig(config, "merge_strategy", "union")
	if strategy != "union" {
		return nil, fmt.Errorf("unknown merge strategy: %s", strategy)
	}
	return &mergeNode{
		strategy:    strategy,
		deduplicate: boolConfig(config, "deduplicate", true),
	}, nil
}

func (n *mergeNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	batches, _ := inputs["items"].([]interface{})

	var all []map[string]interface{}
	for _, batch := range batches {
		// Each edge contributes one batch; tolerate a bare item too.
		if list, ok := batch.([]interface{}); ok {
			for _, v := range list {
				all = append(all, item(v))
			}
			continue
		}
		all = append(all, item(batch))
	}

	if !n.deduplicate {
		items := make([]interface{}, 0, len(all))
		for _, doc := range all {
			items = append(items, doc)
		}
		return map[string]interface{}{"items": items}, nil
	}

	var order []string
	byKey := make(map[string]map[string]interface{})
	for _, doc := range all {
		key := dedupKey(doc)
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = doc
			order = append(order, key)
			continue
		}
		merged, err := domain.MergeValues(existing, doc)
		if err != nil {
			return nil, err
		}
		byKey[key] = merged.(map[string]interface{})
	}

	items := make([]interface{}, 0, len(order))
	for _, key := range order {
		items = append(items, byKey[key])
	}
	return map[string]interface{}{"items": items}, nil
}

func dedupKey(doc map[string]interface{}) string {
	if id, ok := doc["id"].(string); ok && id != "" {
		return "id:" + id
	}
	return "content:" + itemContent(doc)
}
