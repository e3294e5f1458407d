package ports

import (
	"context"

	"github.com/eleven-am/nodeflow/internal/domain"
)

// Node is the single capability every node kind implements: given the
// resolved input-port values, produce the output-port values or fail.
// The run-scoped context (globals, cancellation) travels inside ctx; use
// domain.GetRunContext to reach it.
type Node interface {
	Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error)
}

// StreamingNode is the iterative produce-many variant. A node implementing
// it yields one lazy sequence per output port; the engine drains every
// stream before recording the node's terminal state.
type StreamingNode interface {
	Node
	ExecuteStream(ctx context.Context, inputs map[string]interface{}) (map[string]domain.Stream, error)
}

// NodeFactory builds a runnable node instance from a NodeDefinition's
// opaque config map.
type NodeFactory func(config map[string]interface{}) (Node, error)

// ConfigField declares the shape of one configuration key a node accepts.
type ConfigField struct {
	Name     string                 `json:"name"`
	Type     domain.ConfigFieldType `json:"type"`
	Required bool                   `json:"required,omitempty"`
	Default  interface{}            `json:"default,omitempty"`
}

// NodeSchema describes a node type: its identity, canvas metadata, port
// declarations, and configuration shape.
type NodeSchema struct {
	Type     string            `json:"type"`
	Label    string            `json:"label,omitempty"`
	Category string            `json:"category,omitempty"`
	Inputs   []domain.PortDecl `json:"inputs"`
	Outputs  []domain.PortDecl `json:"outputs"`
	Config   []ConfigField     `json:"config,omitempty"`
}

func (s NodeSchema) InputPort(name string) (domain.PortDecl, bool) {
	for _, p := range s.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return domain.PortDecl{}, false
}

func (s NodeSchema) OutputPort(name string) (domain.PortDecl, bool) {
	for _, p := range s.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return domain.PortDecl{}, false
}

func (s NodeSchema) ConfigFieldNamed(name string) (ConfigField, bool) {
	for _, f := range s.Config {
		if f.Name == name {
			return f, true
		}
	}
	return ConfigField{}, false
}
