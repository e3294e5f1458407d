package ports

// NodeRegistry maps a node-type name to its schema and factory. It is
// populated once at process start (built-ins plus extension discovery) and
// read-only for the remainder of the process lifetime; the engine only ever
// resolves, never registers.
type NodeRegistry interface {
	Register(schema NodeSchema, factory NodeFactory) error
	Resolve(nodeType string) (NodeSchema, NodeFactory, error)
	Has(nodeType string) bool
	Schemas() []NodeSchema
	Seal()
}

// Extension is a no-argument registration callback contributed by an
// installed extension package. Discovery invokes each exactly once before
// the registry is sealed.
type Extension func(reg NodeRegistry) error
