package registry

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

type entry struct {
	schema  ports.NodeSchema
	factory ports.NodeFactory
}

// Manager is the process-wide node capability registry. Registration is
// idempotent per type name; re-registering the same name with a different
// factory is a configuration error, never a silent overwrite.
type Manager struct {
	entries map[string]entry
	sealed  bool
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		entries: make(map[string]entry),
		logger:  logger.With("component", "node-registry"),
	}
}

func (m *Manager) Register(schema ports.NodeSchema, factory ports.NodeFactory) error {
	if schema.Type == "" {
		m.logger.Error("attempted to register node type with empty name")
		return domain.NewRegistrationError("", "node type name cannot be empty")
	}
	if factory == nil {
		m.logger.Error("attempted to register nil factory", "node_type", schema.Type)
		return domain.NewRegistrationError(schema.Type, "factory cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sealed {
		m.logger.Error("registration after seal", "node_type", schema.Type)
		return domain.NewRegistrationError(schema.Type, domain.ErrRegistrySealed.Error())
	}

	if existing, ok := m.entries[schema.Type]; ok {
		if sameFactory(existing.factory, factory) {
			m.logger.Debug("duplicate registration ignored", "node_type", schema.Type)
			return nil
		}
		m.logger.Error("conflicting registration", "node_type", schema.Type)
		return domain.NewRegistrationError(schema.Type, "already registered with a different factory")
	}

	m.entries[schema.Type] = entry{schema: schema, factory: factory}
	m.logger.Debug("node type registered", "node_type", schema.Type, "total_types", len(m.entries))
	return nil
}

func (m *Manager) Resolve(nodeType string) (ports.NodeSchema, ports.NodeFactory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[nodeType]
	if !ok {
		m.logger.Debug("node type not found", "node_type", nodeType)
		return ports.NodeSchema{}, nil, &domain.ValidationError{
			Issues: []domain.ValidationIssue{{Message: "unknown node type: " + nodeType}},
		}
	}
	return e.schema, e.factory, nil
}

func (m *Manager) Has(nodeType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[nodeType]
	return ok
}

// Schemas returns the registered node type schemas sorted by type name,
// for the hosting canvas/editor's node panel.
func (m *Manager) Schemas() []ports.NodeSchema {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ports.NodeSchema, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Seal marks the registry read-only. Discovery calls it once after every
// extension callback ran; later Register calls fail with RegistrationError.
func (m *Manager) Seal() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sealed = true
	m.logger.Debug("registry sealed", "total_types", len(m.entries))
}

// sameFactory reports whether two factories are the same function value.
func sameFactory(a, b ports.NodeFactory) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
