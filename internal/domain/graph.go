package domain

import (
	"time"
)

// PortDecl declares one named, typed input or output slot on a node.
type PortDecl struct {
	Name     string      `json:"name"`
	Type     PortType    `json:"type"`
	IsList   bool        `json:"is_list,omitempty"`
	Required bool        `json:"required,omitempty"`
	Default  interface{} `json:"default,omitempty"`
}

// NodeDefinition is one node inside a graph. It is owned exclusively by the
// Graph that contains it and never shared across graphs.
type NodeDefinition struct {
	ID              string
	Type            string
	Config          map[string]interface{}
	Inputs          []PortDecl
	Outputs         []PortDecl
	InputValues     map[string]interface{}
	ContinueOnError bool
	Timeout         time.Duration
}

func (n *NodeDefinition) InputPort(name string) (PortDecl, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortDecl{}, false
}

func (n *NodeDefinition) OutputPort(name string) (PortDecl, bool) {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortDecl{}, false
}

// SoleOutput returns the implicit output port when the node declares
// exactly one. Edge and workflow-output references may omit the port name
// in that case.
func (n *NodeDefinition) SoleOutput() (PortDecl, bool) {
	if len(n.Outputs) == 1 {
		return n.Outputs[0], true
	}
	return PortDecl{}, false
}

// Edge connects one node's output port to another node's input port.
type Edge struct {
	Source     string `json:"source"`
	SourcePort string `json:"sourceHandle"`
	Target     string `json:"target"`
	TargetPort string `json:"targetHandle"`
}

// SchemaField is one workflow-level input declaration.
type SchemaField struct {
	Name     string      `json:"name"`
	Type     PortType    `json:"type"`
	Required bool        `json:"required,omitempty"`
	Default  interface{} `json:"default,omitempty"`
}

// OutputBinding designates which node output port backs one workflow-level
// output value. Port may be empty when the node has a sole output.
type OutputBinding struct {
	Name string   `json:"name"`
	Node string   `json:"node"`
	Port string   `json:"port,omitempty"`
	Type PortType `json:"type,omitempty"`
}

// Graph is the immutable, validated representation of one workflow. All
// mutating state during execution lives on the Run, never here; a Graph may
// be read concurrently by any number of runs.
type Graph struct {
	id      string
	name    string
	tags    []string
	nodes   map[string]*NodeDefinition
	order   []string
	edges   []Edge
	inputs  []SchemaField
	outputs []OutputBinding
	topo    []string
	levels  [][]string
}

// NewGraph seals a validated graph. Callers outside the graph builder have
// no business constructing one; the builder is the only path that upholds
// the DAG and binding invariants.
func NewGraph(
	id, name string,
	tags []string,
	nodes []*NodeDefinition,
	edges []Edge,
	inputs []SchemaField,
	outputs []OutputBinding,
	topo []string,
	levels [][]string,
) *Graph {
	byID := make(map[string]*NodeDefinition, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		order = append(order, n.ID)
	}
	return &Graph{
		id:      id,
		name:    name,
		tags:    tags,
		nodes:   byID,
		order:   order,
		edges:   edges,
		inputs:  inputs,
		outputs: outputs,
		topo:    topo,
		levels:  levels,
	}
}

func (g *Graph) ID() string   { return g.id }
func (g *Graph) Name() string { return g.name }

func (g *Graph) Tags() []string {
	out := make([]string, len(g.tags))
	copy(out, g.tags)
	return out
}

func (g *Graph) Node(id string) (*NodeDefinition, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns node identifiers in declaration order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesInto returns the edges feeding the named input port of a node, in
// edge-declaration order. Fan-in order for merge-capable list ports follows
// this ordering.
func (g *Graph) EdgesInto(nodeID, port string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == nodeID && e.TargetPort == port {
			out = append(out, e)
		}
	}
	return out
}

// Upstream returns the distinct producer node ids of a node, in
// edge-declaration order.
func (g *Graph) Upstream(nodeID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.edges {
		if e.Target == nodeID && !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

func (g *Graph) Inputs() []SchemaField {
	out := make([]SchemaField, len(g.inputs))
	copy(out, g.inputs)
	return out
}

func (g *Graph) InputField(name string) (SchemaField, bool) {
	for _, f := range g.inputs {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

func (g *Graph) Outputs() []OutputBinding {
	out := make([]OutputBinding, len(g.outputs))
	copy(out, g.outputs)
	return out
}

// TopologicalOrder returns node ids in a dependency-respecting order
// computed once at validation time.
func (g *Graph) TopologicalOrder() []string {
	out := make([]string, len(g.topo))
	copy(out, g.topo)
	return out
}

// Levels partitions the topological order into ready-groups: nodes within
// one level have no dependency relation among them and may be dispatched
// concurrently once every earlier level reached a terminal state.
func (g *Graph) Levels() [][]string {
	out := make([][]string, len(g.levels))
	for i, lvl := range g.levels {
		cp := make([]string, len(lvl))
		copy(cp, lvl)
		out[i] = cp
	}
	return out
}

// EntryNodes returns the nodes with no incoming edges, in declaration order.
func (g *Graph) EntryNodes() []string {
	indeg := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		indeg[e.Target]++
	}
	var out []string
	for _, id := range g.order {
		if indeg[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

// SinkNodes returns the nodes with no outgoing edges, in declaration order.
func (g *Graph) SinkNodes() []string {
	outdeg := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		outdeg[e.Source]++
	}
	var out []string
	for _, id := range g.order {
		if outdeg[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}
