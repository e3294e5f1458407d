package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	single := &ValidationError{Issues: []ValidationIssue{
		{NodeID: "a", Port: "query", Message: "required input port is unbound and has no default"},
	}}
	assert.Equal(t, `invalid graph: node "a" port "query": required input port is unbound and has no default`, single.Error())

	multi := &ValidationError{Issues: []ValidationIssue{
		{NodeID: "a", Message: "unknown node type: nope"},
		{Edge: "a.out -> b.in", Message: "target node does not exist: b"},
	}}
	assert.Contains(t, multi.Error(), "2 issues")
	assert.Contains(t, multi.Error(), "unknown node type: nope")
	assert.Contains(t, multi.Error(), "edge a.out -> b.in")
}

func TestErrorPredicates(t *testing.T) {
	regErr := NewRegistrationError("start", "already registered with a different factory")
	valErr := &ValidationError{Issues: []ValidationIssue{{Message: "x"}}}
	execErr := NewNodeExecutionError("a", "start", nil, errors.New("boom"))

	assert.True(t, IsRegistrationError(regErr))
	assert.False(t, IsRegistrationError(valErr))

	assert.True(t, IsValidationError(valErr))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", valErr)))
	assert.False(t, IsValidationError(regErr))

	assert.True(t, IsNodeExecutionError(execErr))
	assert.EqualError(t, errors.Unwrap(execErr), "boom")
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "engine sentinel", err: ErrCancelled, expected: true},
		{name: "context canceled", err: context.Canceled, expected: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, expected: true},
		{name: "wrapped context canceled", err: fmt.Errorf("node: %w", context.Canceled), expected: true},
		{name: "ordinary error", err: errors.New("boom"), expected: false},
		{name: "nil", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCancelled(tt.err))
		})
	}
}
