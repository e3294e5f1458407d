package nodes

import (
	"context"
	"sort"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// rerankNode reorders retrieved items by boosting documents containing the
// configured terms on top of their original retrieval score.
type rerankNode struct {
	boostTerms []interface{}
	weight     float64
	topK       int
}

func rerankSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "rerank",
		Label:    "Rerank",
		Category: "Retrieval",
		Inputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems, Required: true},
		},
		Outputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems},
		},
		Config: []ports.ConfigField{
			{Name: "boost_terms", Type: domain.FieldArray},
			{Name: "weight", Type: domain.FieldNumber, Default: 0.5},
			{Name: "top_k", Type: domain.FieldInteger, Default: 0},
		},
	}
}

func newRerank(config map[string]interface{}) (ports.Node, error) {
	return &rerankNode{
		boostTerms: sliceConfig(config, "boost_terms"),
		weight:     floatConfig(config, "weight", 0.5),
		topK:       intConfig(config, "top_k", 0),
	}, nil
}

func (n *rerankNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	raw, _ := inputs["items"].([]interface{})

	type scored struct {
		doc   map[string]interface{}
		score float64
		pos   int
	}
	rescored := make([]scored, 0, len(raw))
	for i, v := range raw {
		doc := item(v)
		terms := tokenize(itemContent(doc))

		boost := 0.0
		for _, t := range n.boostTerms {
			if s, ok := t.(string); ok && terms[s] {
				boost++
			}
		}

		out := make(map[string]interface{}, len(doc)+1)
		for k, val := range doc {
			out[k] = val
		}
		score := itemScore(doc) + n.weight*boost
		out["score"] = score
		rescored = append(rescored, scored{doc: out, score: score, pos: i})
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		if rescored[i].score != rescored[j].score {
			return rescored[i].score > rescored[j].score
		}
		return rescored[i].pos < rescored[j].pos
	})

	if n.topK > 0 && len(rescored) > n.topK {
		rescored = rescored[:n.topK]
	}

	items := make([]interface{}, 0, len(rescored))
	for _, s := range rescored {
		items = append(items, s.doc)
	}
	return map[string]interface{}{"items": items}, nil
}
