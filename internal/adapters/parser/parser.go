// Package parser turns submitted workflow documents into the normalized
// GraphSpec the graph builder consumes. Two formats are accepted: the
// canvas format (top-level "graph" object with nodes/edges and workflow
// schemas) and the legacy format (top-level "nodes"/"edges" with inline
// input-value bindings). Documents may be JSON or YAML.
package parser

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/xjson"
)

type Parser struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "workflow-parser")}
}

// Parse decodes a workflow document, detects its format, and normalizes it.
func (p *Parser) Parse(data []byte) (*domain.GraphSpec, error) {
	doc, err := p.decode(data)
	if err != nil {
		return nil, &domain.ValidationError{Issues: []domain.ValidationIssue{{
			Message: "malformed workflow document: " + err.Error(),
		}}}
	}
	return p.Normalize(doc)
}

// Normalize accepts an already decoded document map, typically from a host
// that stores workflow definitions as structured rows rather than text.
func (p *Parser) Normalize(doc map[string]interface{}) (*domain.GraphSpec, error) {
	switch {
	case hasKey(doc, "graph"):
		p.logger.Debug("detected canvas format")
		return p.parseCanvas(doc)
	case hasKey(doc, "nodes"):
		p.logger.Debug("detected legacy format")
		return p.parseLegacy(doc)
	default:
		return nil, &domain.ValidationError{Issues: []domain.ValidationIssue{{
			Message: domain.ErrUnknownFormat.Error(),
		}}}
	}
}

func (p *Parser) decode(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if xjson.Valid(data) {
		if err := xjson.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Parser) parseCanvas(doc map[string]interface{}) (*domain.GraphSpec, error) {
	spec := &domain.GraphSpec{
		ID:   asString(doc["id"]),
		Name: asString(doc["name"]),
		Tags: asStringSlice(doc["tags"]),
	}

	graph, ok := doc["graph"].(map[string]interface{})
	if !ok {
		return nil, &domain.ValidationError{Issues: []domain.ValidationIssue{{
			Message: `"graph" must be an object`,
		}}}
	}

	nodes, err := p.parseNodes(asSlice(graph["nodes"]))
	if err != nil {
		return nil, err
	}
	spec.Nodes = nodes
	spec.Edges = p.parseEdges(asSlice(graph["edges"]))
	spec.Inputs = p.parseInputSchema(asSlice(doc["input_schema"]))
	spec.Outputs = p.parseOutputSchema(asSlice(doc["output_schema"]))

	return spec, nil
}

func (p *Parser) parseLegacy(doc map[string]interface{}) (*domain.GraphSpec, error) {
	spec := &domain.GraphSpec{
		ID:   asString(doc["id"]),
		Name: asString(doc["name"]),
		Tags: asStringSlice(doc["tags"]),
	}
	if spec.Name == "" {
		spec.Name = asString(doc["title"])
	}

	nodes, err := p.parseNodes(asSlice(doc["nodes"]))
	if err != nil {
		return nil, err
	}
	spec.Nodes = nodes
	spec.Edges = p.parseEdges(asSlice(doc["edges"]))
	spec.Inputs = p.parseInputSchema(asSlice(doc["input_schema"]))
	spec.Outputs = p.parseOutputSchema(asSlice(doc["output_schema"]))

	return spec, nil
}

func (p *Parser) parseNodes(raw []interface{}) ([]domain.NodeSpec, error) {
	nodes := make([]domain.NodeSpec, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.ValidationError{Issues: []domain.ValidationIssue{{
				Message: fmt.Sprintf("node at index %d is not an object", i),
			}}}
		}

		node := domain.NodeSpec{
			ID:   asString(obj["id"]),
			Type: asString(obj["type"]),
		}
		if node.ID == "" {
			return nil, &domain.ValidationError{Issues: []domain.ValidationIssue{{
				Message: fmt.Sprintf("node at index %d has no id", i),
			}}}
		}

		data, _ := obj["data"].(map[string]interface{})
		node.Config = make(map[string]interface{})
		for k, v := range data {
			switch k {
			case "continue_on_error":
				node.ContinueOnError = asBool(v)
			case "timeout_ms":
				node.Timeout = time.Duration(asInt(v)) * time.Millisecond
			case "input":
				// Legacy inline bindings: data.input.values.
				if in, ok := v.(map[string]interface{}); ok {
					if values, ok := in["values"].(map[string]interface{}); ok {
						node.InputValues = values
					}
				}
			default:
				node.Config[k] = v
			}
		}

		if portsObj, ok := obj["ports"].(map[string]interface{}); ok {
			node.Inputs = p.parsePortDecls(asSlice(portsObj["inputs"]))
			node.Outputs = p.parsePortDecls(asSlice(portsObj["outputs"]))
		}

		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (p *Parser) parseEdges(raw []interface{}) []domain.EdgeSpec {
	edges := make([]domain.EdgeSpec, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		edges = append(edges, domain.EdgeSpec{
			Source:     asString(obj["source"]),
			SourcePort: asString(obj["sourceHandle"]),
			Target:     asString(obj["target"]),
			TargetPort: asString(obj["targetHandle"]),
		})
	}
	return edges
}

func (p *Parser) parsePortDecls(raw []interface{}) []domain.PortDecl {
	decls := make([]domain.PortDecl, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		decls = append(decls, domain.PortDecl{
			Name:     asString(obj["name"]),
			Type:     domain.PortType(asString(obj["type"])),
			IsList:   asBool(obj["is_list"]),
			Required: asBool(obj["required"]),
			Default:  obj["default"],
		})
	}
	return decls
}

func (p *Parser) parseInputSchema(raw []interface{}) []domain.SchemaField {
	fields := make([]domain.SchemaField, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fields = append(fields, domain.SchemaField{
			Name:     asString(obj["name"]),
			Type:     domain.PortType(asString(obj["type"])),
			Required: asBool(obj["required"]),
			Default:  obj["default"],
		})
	}
	return fields
}

func (p *Parser) parseOutputSchema(raw []interface{}) []domain.OutputBinding {
	bindings := make([]domain.OutputBinding, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		bindings = append(bindings, domain.OutputBinding{
			Name: asString(obj["name"]),
			Node: asString(obj["node"]),
			Port: asString(obj["port"]),
			Type: domain.PortType(asString(obj["type"])),
		})
	}
	return bindings
}

func hasKey(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asStringSlice(v interface{}) []string {
	raw := asSlice(v)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
