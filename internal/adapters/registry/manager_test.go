package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

type stubNode struct{}

func (stubNode) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	return inputs, nil
}

func stubFactory(config map[string]interface{}) (ports.Node, error) {
	return stubNode{}, nil
}

func schemaNamed(name string) ports.NodeSchema {
	return ports.NodeSchema{Type: name}
}

func TestManager_RegisterAndResolve(t *testing.T) {
	m := NewManager(nil)

	require.NoError(t, m.Register(schemaNamed("start"), stubFactory))
	assert.True(t, m.Has("start"))
	assert.False(t, m.Has("missing"))

	schema, factory, err := m.Resolve("start")
	require.NoError(t, err)
	assert.Equal(t, "start", schema.Type)
	require.NotNil(t, factory)

	node, err := factory(nil)
	require.NoError(t, err)
	assert.NotNil(t, node)
}

func TestManager_ResolveUnknownType(t *testing.T) {
	m := NewManager(nil)

	_, _, err := m.Resolve("nope")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Contains(t, err.Error(), "unknown node type: nope")
}

func TestManager_RegisterRejectsBadInput(t *testing.T) {
	m := NewManager(nil)

	err := m.Register(schemaNamed(""), stubFactory)
	require.Error(t, err)
	assert.True(t, domain.IsRegistrationError(err))

	err = m.Register(schemaNamed("start"), nil)
	require.Error(t, err)
	assert.True(t, domain.IsRegistrationError(err))
}

func TestManager_DuplicateRegistration(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(schemaNamed("start"), stubFactory))

	// Same factory value is idempotent.
	assert.NoError(t, m.Register(schemaNamed("start"), stubFactory))

	other := func(config map[string]interface{}) (ports.Node, error) {
		return stubNode{}, nil
	}
	err := m.Register(schemaNamed("start"), other)
	require.Error(t, err)
	assert.True(t, domain.IsRegistrationError(err))
	assert.Contains(t, err.Error(), "different factory")
}

func TestManager_Seal(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(schemaNamed("start"), stubFactory))

	m.Seal()

	err := m.Register(schemaNamed("llm"), stubFactory)
	require.Error(t, err)
	assert.True(t, domain.IsRegistrationError(err))
	assert.Contains(t, err.Error(), domain.ErrRegistrySealed.Error())

	// Resolution still works after sealing.
	_, _, err = m.Resolve("start")
	assert.NoError(t, err)
}

func TestManager_SchemasSorted(t *testing.T) {
	m := NewManager(nil)
	for _, name := range []string{"merge", "start", "llm"} {
		require.NoError(t, m.Register(schemaNamed(name), stubFactory))
	}

	schemas := m.Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "llm", schemas[0].Type)
	assert.Equal(t, "merge", schemas[1].Type)
	assert.Equal(t, "start", schemas[2].Type)
}

func TestDiscover(t *testing.T) {
	m := NewManager(nil)

	calls := 0
	ext := func(reg ports.NodeRegistry) error {
		calls++
		return reg.Register(schemaNamed("custom"), stubFactory)
	}

	require.NoError(t, Discover(m, nil, ext))
	assert.Equal(t, 1, calls)
	assert.True(t, m.Has("custom"))

	// Discovery seals the registry.
	err := m.Register(schemaNamed("late"), stubFactory)
	assert.True(t, domain.IsRegistrationError(err))
}

func TestDiscover_ExtensionFailureAborts(t *testing.T) {
	m := NewManager(nil)

	boom := errors.New("extension broke")
	ran := false
	err := Discover(m, nil,
		func(reg ports.NodeRegistry) error { return boom },
		func(reg ports.NodeRegistry) error { ran = true; return nil },
	)

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}
