package domain

import "time"

// GraphSpec is the raw, not yet validated description of a workflow as
// submitted by a host. Both submission formats (the canvas format and the
// legacy inline-bindings format) normalize into this shape before the graph
// builder sees them.
type GraphSpec struct {
	ID      string
	Name    string
	Tags    []string
	Nodes   []NodeSpec
	Edges   []EdgeSpec
	Inputs  []SchemaField
	Outputs []OutputBinding
}

// NodeSpec describes one node prior to validation. Inputs/Outputs are
// optional overrides; when empty the registry schema for Type applies.
type NodeSpec struct {
	ID              string
	Type            string
	Config          map[string]interface{}
	Inputs          []PortDecl
	Outputs         []PortDecl
	InputValues     map[string]interface{}
	ContinueOnError bool
	Timeout         time.Duration
}

// EdgeSpec describes one connection prior to validation. SourcePort may be
// empty, meaning the source node's implicit sole output.
type EdgeSpec struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}
