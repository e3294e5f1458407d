package nodes

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// vectorSearchNode retrieves the documents most similar to the query from
// the corpus carried in its config. Similarity is term-overlap based so
// results are fully deterministic; a host wanting a real vector store
// registers its own node type for this contract instead.
type vectorSearchNode struct {
	topK      int
	threshold float64
	corpus    []interface{}
}

func vectorSearchSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "vector_search",
		Label:    "Vector Search",
		Category: "Retrieval",
		Inputs: []domain.PortDecl{
			{Name: "query", Type: domain.TypeQuery, Required: true},
		},
		Outputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems},
		},
		Config: []ports.ConfigField{
			{Name: "top_k", Type: domain.FieldInteger, Default: 5},
			{Name: "similarity_threshold", Type: domain.FieldNumber, Default: 0.2},
			{Name: "documents", Type: domain.FieldArray},
		},
	}
}

func newVectorSearch(config map[string]interface{}) (ports.Node, error) {
	return &vectorSearchNode{
		topK:      intConfig(config, "top_k", 5),
		threshold: floatConfig(config, "similarity_threshold", 0.2),
		corpus:    sliceConfig(config, "documents"),
	}, nil
}

func (n *vectorSearchNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	query, _ := inputs["query"].(string)
	if query == "" {
		return nil, errors.New("vector_search requires a non-empty query")
	}

	queryTerms := tokenize(query)
	type scored struct {
		doc   map[string]interface{}
		score float64
		pos   int
	}

	var matches []scored
	for i, raw := range n.corpus {
		doc := item(raw)
		score := overlap(queryTerms, tokenize(itemContent(doc)))
		if score < n.threshold {
			continue
		}
		out := make(map[string]interface{}, len(doc)+1)
		for k, v := range doc {
			out[k] = v
		}
		out["score"] = score
		matches = append(matches, scored{doc: out, score: score, pos: i})
	}

	// Stable ordering: score descending, corpus position breaking ties.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})

	if n.topK > 0 && len(matches) > n.topK {
		matches = matches[:n.topK]
	}

	items := make([]interface{}, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.doc)
	}
	return map[string]interface{}{"items": items}, nil
}

func tokenize(s string) map[string]bool {
	terms := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(s)) {
		t = strings.Trim(t, ".,;:!?\"'()[]")
		if t != "" {
			terms[t] = true
		}
	}
	return terms
}

// overlap is the fraction of query terms present in the document.
func overlap(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if doc[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
