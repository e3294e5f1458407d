package nodes

import (
	"context"
	"strings"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// llmNode renders an answer from the retrieved items and the query using a
// prompt template with {{query}} and {{context}} placeholders. The body is
// deterministic; hosts back real model calls with their own node type. It
// implements the streaming contract, yielding the answer word by word the
// way chat completions arrive as deltas.
type llmNode struct {
	model  string
	prompt string
}

const defaultPrompt = "Answer for {{query}}: {{context}}"

func llmSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "llm",
		Label:    "LLM",
		Category: "LLM",
		Inputs: []domain.PortDecl{
			{Name: "items", Type: domain.TypeRetrievedItems, Required: true},
			{Name: "query", Type: domain.TypeQuery},
		},
		Outputs: []domain.PortDecl{
			{Name: "text", Type: domain.TypeChatMessages},
		},
		Config: []ports.ConfigField{
			{Name: "model", Type: domain.FieldString, Default: "echo"},
			{Name: "prompt", Type: domain.FieldString, Default: defaultPrompt},
		},
	}
}

func newLLM(config map[string]interface{}) (ports.Node, error) {
	return &llmNode{
		model:  stringConfig(config, "model", "echo"),
		prompt: stringConfig(config, "prompt", defaultPrompt),
	}, nil
}

func (n *llmNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"text": n.render(ctx, inputs)}, nil
}

func (n *llmNode) ExecuteStream(ctx context.Context, inputs map[string]interface{}) (map[string]domain.Stream, error) {
	text := n.render(ctx, inputs)

	words := strings.SplitAfter(text, " ")
	chunks := make([]interface{}, 0, len(words))
	for _, w := range words {
		if w != "" {
			chunks = append(chunks, w)
		}
	}

	return map[string]domain.Stream{
		"text": domain.NewSliceStream(chunks...),
	}, nil
}

func (n *llmNode) render(ctx context.Context, inputs map[string]interface{}) string {
	query, _ := inputs["query"].(string)
	if query == "" {
		if rc, ok := domain.GetRunContext(ctx); ok {
			if q, ok := rc.Global("query"); ok {
				query, _ = q.(string)
			}
		}
	}

	items, _ := inputs["items"].([]interface{})
	contents := make([]string, 0, len(items))
	for _, v := range items {
		if c := itemContent(item(v)); c != "" {
			contents = append(contents, c)
		}
	}

	replacer := strings.NewReplacer(
		"{{query}}", query,
		"{{context}}", strings.Join(contents, "\n"),
	)
	return replacer.Replace(n.prompt)
}
