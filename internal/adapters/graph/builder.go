// Package graph builds validated, immutable Graph values out of normalized
// workflow specs. Validation is total: every issue found in one pass is
// collected and reported together, each attributable to the offending
// node, edge, or port.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

type Builder struct {
	registry ports.NodeRegistry
	logger   *slog.Logger
}

func NewBuilder(registry ports.NodeRegistry, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		registry: registry,
		logger:   logger.With("component", "graph-builder"),
	}
}

// Build validates a spec against the registry and seals it into a Graph.
// Validation steps, in order: type resolution and port/config shape, edge
// endpoints and type compatibility, acyclicity, required-input coverage,
// and workflow output bindings.
func (b *Builder) Build(spec *domain.GraphSpec) (*domain.Graph, error) {
	var issues []domain.ValidationIssue

	nodes, nodeIssues := b.buildNodes(spec)
	issues = append(issues, nodeIssues...)

	byID := make(map[string]*domain.NodeDefinition, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	edges, edgeIssues := b.resolveEdges(spec, byID)
	issues = append(issues, edgeIssues...)

	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}

	order, levels, cycle := sortNodes(nodeIDs, edges)
	if cycle != nil {
		issues = append(issues, domain.ValidationIssue{
			Message: fmt.Sprintf("dependency cycle among nodes %v", cycle),
		})
	}

	issues = append(issues, b.checkRequiredInputs(spec, byID, edges)...)
	issues = append(issues, b.checkOutputBindings(spec, byID)...)

	if len(issues) > 0 {
		b.logger.Debug("graph rejected", "graph_id", spec.ID, "issues", len(issues))
		return nil, &domain.ValidationError{Issues: issues}
	}

	b.logger.Debug("graph validated",
		"graph_id", spec.ID,
		"nodes", len(nodes),
		"edges", len(edges),
		"levels", len(levels),
	)

	return domain.NewGraph(
		spec.ID, spec.Name, spec.Tags,
		nodes, edges,
		spec.Inputs, spec.Outputs,
		order, levels,
	), nil
}

func (b *Builder) buildNodes(spec *domain.GraphSpec) ([]*domain.NodeDefinition, []domain.ValidationIssue) {
	var issues []domain.ValidationIssue
	seen := make(map[string]bool, len(spec.Nodes))
	nodes := make([]*domain.NodeDefinition, 0, len(spec.Nodes))

	for _, ns := range spec.Nodes {
		if seen[ns.ID] {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  ns.ID,
				Message: "duplicate node id",
			})
			continue
		}
		seen[ns.ID] = true

		schema, _, err := b.registry.Resolve(ns.Type)
		if err != nil {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  ns.ID,
				Message: "unknown node type: " + ns.Type,
			})
			continue
		}

		issues = append(issues, checkPortOverrides(ns.ID, ns.Inputs, schema.Inputs)...)
		issues = append(issues, checkPortOverrides(ns.ID, ns.Outputs, schema.Outputs)...)

		config, configIssues := coerceConfig(ns.ID, ns.Config, schema.Config)
		issues = append(issues, configIssues...)

		nodes = append(nodes, &domain.NodeDefinition{
			ID:              ns.ID,
			Type:            ns.Type,
			Config:          config,
			Inputs:          applyPortOverrides(schema.Inputs, ns.Inputs),
			Outputs:         applyPortOverrides(schema.Outputs, ns.Outputs),
			InputValues:     ns.InputValues,
			ContinueOnError: ns.ContinueOnError,
			Timeout:         ns.Timeout,
		})
	}

	return nodes, issues
}

// checkPortOverrides enforces that a node's declared ports are a subset of
// the registry schema for its type, matching by name and type.
func checkPortOverrides(nodeID string, declared, schema []domain.PortDecl) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, d := range declared {
		found := false
		for _, s := range schema {
			if s.Name == d.Name {
				found = true
				if d.Type != "" && d.Type != s.Type {
					issues = append(issues, domain.ValidationIssue{
						NodeID: nodeID,
						Port:   d.Name,
						Message: fmt.Sprintf("declared port type %q conflicts with registry type %q",
							d.Type, s.Type),
					})
				}
				break
			}
		}
		if !found {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  nodeID,
				Port:    d.Name,
				Message: "port not declared by node type schema",
			})
		}
	}
	return issues
}

// applyPortOverrides overlays a node's declared ports onto the registry
// schema. Declared ports adjust IsList, Required, and Default on the
// matching schema port; undeclared ports keep the schema values. The port
// type never changes, checkPortOverrides already rejected conflicts.
func applyPortOverrides(schema, declared []domain.PortDecl) []domain.PortDecl {
	if len(declared) == 0 {
		return schema
	}
	merged := make([]domain.PortDecl, len(schema))
	copy(merged, schema)
	for _, d := range declared {
		for i := range merged {
			if merged[i].Name != d.Name {
				continue
			}
			merged[i].IsList = d.IsList
			merged[i].Required = d.Required
			if d.Default != nil {
				merged[i].Default = d.Default
			}
			break
		}
	}
	return merged
}

func coerceConfig(nodeID string, raw map[string]interface{}, fields []ports.ConfigField) (map[string]interface{}, []domain.ValidationIssue) {
	var issues []domain.ValidationIssue
	config := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		config[k] = v
	}

	for _, f := range fields {
		v, present := config[f.Name]
		if !present {
			if f.Default != nil {
				config[f.Name] = f.Default
			} else if f.Required {
				issues = append(issues, domain.ValidationIssue{
					NodeID:  nodeID,
					Message: fmt.Sprintf("missing required config field %q", f.Name),
				})
			}
			continue
		}
		coerced, err := domain.Coerce(v, f.Type)
		if err != nil {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  nodeID,
				Message: fmt.Sprintf("config field %q: %v", f.Name, err),
			})
			continue
		}
		config[f.Name] = coerced
	}

	return config, issues
}

// resolveEdges checks endpoints, applies the implicit sole-port convention,
// verifies type compatibility, and enforces the single-feed rule for
// non-list target ports. Returned edges carry resolved port names.
func (b *Builder) resolveEdges(spec *domain.GraphSpec, nodes map[string]*domain.NodeDefinition) ([]domain.Edge, []domain.ValidationIssue) {
	var issues []domain.ValidationIssue
	edges := make([]domain.Edge, 0, len(spec.Edges))
	feeds := make(map[string]int)

	for _, es := range spec.Edges {
		label := fmt.Sprintf("%s.%s -> %s.%s", es.Source, es.SourcePort, es.Target, es.TargetPort)

		source, ok := nodes[es.Source]
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				Edge:    label,
				Message: "source node does not exist: " + es.Source,
			})
			continue
		}
		target, ok := nodes[es.Target]
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				Edge:    label,
				Message: "target node does not exist: " + es.Target,
			})
			continue
		}

		sourcePort, ok := resolveSourcePort(source, es.SourcePort)
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  es.Source,
				Edge:    label,
				Port:    es.SourcePort,
				Message: "source port does not exist",
			})
			continue
		}
		targetPort, ok := resolveTargetPort(target, es.TargetPort)
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  es.Target,
				Edge:    label,
				Port:    es.TargetPort,
				Message: "target port does not exist",
			})
			continue
		}

		if !domain.Compatible(sourcePort.Type, targetPort.Type) {
			issues = append(issues, domain.ValidationIssue{
				Edge: label,
				Message: fmt.Sprintf("incompatible port types: %q cannot feed %q",
					sourcePort.Type, targetPort.Type),
			})
			continue
		}

		feedKey := es.Target + "\x00" + targetPort.Name
		feeds[feedKey]++
		if feeds[feedKey] > 1 && !targetPort.IsList {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  es.Target,
				Port:    targetPort.Name,
				Message: "multiple edges feed a non-list input port",
			})
			continue
		}

		edges = append(edges, domain.Edge{
			Source:     es.Source,
			SourcePort: sourcePort.Name,
			Target:     es.Target,
			TargetPort: targetPort.Name,
		})
	}

	return edges, issues
}

func resolveSourcePort(node *domain.NodeDefinition, name string) (domain.PortDecl, bool) {
	if name == "" {
		return node.SoleOutput()
	}
	return node.OutputPort(name)
}

func resolveTargetPort(node *domain.NodeDefinition, name string) (domain.PortDecl, bool) {
	if name == "" {
		if len(node.Inputs) == 1 {
			return node.Inputs[0], true
		}
		return domain.PortDecl{}, false
	}
	return node.InputPort(name)
}

// checkRequiredInputs verifies that every required input port without a
// default is bound by an edge, an inline input value, or a workflow input
// of the same name.
func (b *Builder) checkRequiredInputs(spec *domain.GraphSpec, nodes map[string]*domain.NodeDefinition, edges []domain.Edge) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	bound := make(map[string]bool)
	for _, e := range edges {
		bound[e.Target+"\x00"+e.TargetPort] = true
	}

	workflowInputs := make(map[string]domain.PortType, len(spec.Inputs))
	for _, f := range spec.Inputs {
		workflowInputs[f.Name] = f.Type
	}

	for _, ns := range spec.Nodes {
		node, ok := nodes[ns.ID]
		if !ok {
			continue
		}
		for _, in := range node.Inputs {
			if !in.Required || in.Default != nil {
				continue
			}
			if bound[node.ID+"\x00"+in.Name] {
				continue
			}
			if _, ok := node.InputValues[in.Name]; ok {
				continue
			}
			if t, ok := workflowInputs[in.Name]; ok && domain.Compatible(t, in.Type) {
				continue
			}
			issues = append(issues, domain.ValidationIssue{
				NodeID:  node.ID,
				Port:    in.Name,
				Message: "required input port is unbound and has no default",
			})
		}
	}

	return issues
}

func (b *Builder) checkOutputBindings(spec *domain.GraphSpec, nodes map[string]*domain.NodeDefinition) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	for _, out := range spec.Outputs {
		node, ok := nodes[out.Node]
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				Message: fmt.Sprintf("workflow output %q references unknown node %q", out.Name, out.Node),
			})
			continue
		}
		port, ok := resolveSourcePort(node, out.Port)
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				NodeID:  out.Node,
				Port:    out.Port,
				Message: fmt.Sprintf("workflow output %q references unknown output port", out.Name),
			})
			continue
		}
		if out.Type != "" && !domain.Compatible(port.Type, out.Type) {
			issues = append(issues, domain.ValidationIssue{
				NodeID: out.Node,
				Port:   port.Name,
				Message: fmt.Sprintf("workflow output %q declares type %q but port produces %q",
					out.Name, out.Type, port.Type),
			})
		}
	}

	return issues
}
