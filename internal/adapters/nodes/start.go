package nodes

import (
	"context"
	"errors"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// startNode is the workflow entry point: it surfaces the run's query so
// downstream retrieval nodes have a typed port to connect to.
type startNode struct{}

func startSchema() ports.NodeSchema {
	return ports.NodeSchema{
		Type:     "start",
		Label:    "Start",
		Category: "Source",
		Inputs: []domain.PortDecl{
			{Name: "query", Type: domain.TypeQuery},
		},
		Outputs: []domain.PortDecl{
			{Name: "query", Type: domain.TypeQuery},
		},
	}
}

func newStart(config map[string]interface{}) (ports.Node, error) {
	return &startNode{}, nil
}

func (n *startNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	if q, ok := inputs["query"].(string); ok && q != "" {
		return map[string]interface{}{"query": q}, nil
	}
	if rc, ok := domain.GetRunContext(ctx); ok {
		if q, ok := rc.Global("query"); ok {
			return map[string]interface{}{"query": q}, nil
		}
	}
	return nil, errors.New("no query bound to start node")
}
