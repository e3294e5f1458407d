package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// graphSearchNode walks the relation triples in its config outward from
// the entities named in the query, up to max_depth hops, and reports each
// reached triple as a retrieved item. Scores decay with hop distance.
type graphSearchNode struct {
	maxDepth  int
	relations []interface{}
}

func graphSearchSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "graph_search",
		Label:    "Graph Search",
		Category: "Retrieval",
		Inputs: []domain.PortDecl{
			{Name: "query", Type: domain.TypeQuery, Required: true},
		},
		Outputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems},
		},
		Config: []ports.ConfigField{
			{Name: "max_depth", Type: domain.FieldInteger, Default: 2},
			{Name: "relations", Type: domain.FieldArray},
		},
	}
}

func newGraphSearch(config map[string]interface{}) (ports.Node, error) {
	return &graphSearchNode{
		maxDepth:  intConfig(config, "max_depth", 2),
		relations: sliceConfig(config, "relations"),
	}, nil
}

type relation struct {
	source string
	label  string
	target string
}

func (n *graphSearchNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	query, _ := inputs["query"].(string)
	if query == "" {
		return nil, errors.New("graph_search requires a non-empty query")
	}

	relations := make([]relation, 0, len(n.relations))
	for _, raw := range n.relations {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		relations = append(relations, relation{
			source: stringConfig(obj, "source", ""),
			label:  stringConfig(obj, "relation", ""),
			target: stringConfig(obj, "target", ""),
		})
	}

	queryTerms := tokenize(query)
	frontier := make(map[string]int)
	for _, r := range relations {
		if queryTerms[r.source] {
			frontier[r.source] = 0
		}
		if queryTerms[r.target] {
			frontier[r.target] = 0
		}
	}

	type hit struct {
		rel   relation
		depth int
	}
	var hits []hit
	seen := make(map[relation]bool)

	for depth := 1; depth <= n.maxDepth; depth++ {
		next := make(map[string]int)
		for _, r := range relations {
			if seen[r] {
				continue
			}
			_, fromSource := frontier[r.source]
			_, fromTarget := frontier[r.target]
			if !fromSource && !fromTarget {
				continue
			}
			seen[r] = true
			hits = append(hits, hit{rel: r, depth: depth})
			next[r.source] = depth
			next[r.target] = depth
		}
		for entity, d := range next {
			if _, ok := frontier[entity]; !ok {
				frontier[entity] = d
			}
		}
	}

	items := make([]interface{}, 0, len(hits))
	for _, h := range hits {
		items = append(items, map[string]interface{}{
			"content": fmt.Sprintf("%s %s %s", h.rel.source, h.rel.label, h.rel.target),
			"score":   1.0 / float64(h.depth),
			"metadata": map[string]interface{}{
				"source": "graph_search",
				"depth":  h.depth,
			},
		})
	}
	return map[string]interface{}{"items": items}, nil
}
