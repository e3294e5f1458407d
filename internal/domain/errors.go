package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCancelled      = errors.New("run cancelled")
	ErrRegistrySealed = errors.New("registry sealed")
	ErrUnknownFormat  = errors.New("unknown workflow document format")
	ErrStreamClosed   = errors.New("stream closed")
)

// RegistrationError reports a duplicate or conflicting node-type
// registration. It is fatal at startup and never deferred to run time.
type RegistrationError struct {
	NodeType string
	Reason   string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("node type %q: %s", e.NodeType, e.Reason)
}

func NewRegistrationError(nodeType, reason string) *RegistrationError {
	return &RegistrationError{NodeType: nodeType, Reason: reason}
}

// ValidationIssue attributes a single validation failure to the offending
// node, edge, or port.
type ValidationIssue struct {
	NodeID  string `json:"node_id,omitempty"`
	Edge    string `json:"edge,omitempty"`
	Port    string `json:"port,omitempty"`
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	var b strings.Builder
	if i.NodeID != "" {
		fmt.Fprintf(&b, "node %q", i.NodeID)
	}
	if i.Edge != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "edge %s", i.Edge)
	}
	if i.Port != "" {
		fmt.Fprintf(&b, " port %q", i.Port)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// ValidationError rejects a graph before any node executes. All issues
// found in one validation pass are collected here rather than reported one
// round-trip at a time.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid graph: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("invalid graph (%d issues): %s", len(e.Issues), strings.Join(parts, "; "))
}

// NodeExecutionError captures a node invocation failure together with the
// node identity and the resolved input snapshot it was invoked with.
type NodeExecutionError struct {
	NodeID   string
	NodeType string
	Inputs   map[string]interface{}
	Err      error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

func NewNodeExecutionError(nodeID, nodeType string, inputs map[string]interface{}, err error) *NodeExecutionError {
	return &NodeExecutionError{NodeID: nodeID, NodeType: nodeType, Inputs: inputs, Err: err}
}

func IsRegistrationError(err error) bool {
	var regErr *RegistrationError
	return errors.As(err, &regErr)
}

func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

func IsNodeExecutionError(err error) bool {
	var execErr *NodeExecutionError
	return errors.As(err, &execErr)
}

// IsCancelled matches both the engine's own sentinel and a raw context
// cancellation or deadline expiry bubbling out of a node body.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
