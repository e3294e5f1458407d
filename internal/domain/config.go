package domain

import (
	"time"
)

// EngineConfig controls the scheduler. Zero values fall back to the
// defaults below when the engine is constructed.
type EngineConfig struct {
	// MaxConcurrency bounds the number of nodes simultaneously running
	// within one ready-group.
	MaxConcurrency int

	// DefaultNodeTimeout applies to every node without its own timeout.
	// Zero means no timeout.
	DefaultNodeTimeout time.Duration

	// EventBuffer sizes the event channel of the streaming execute
	// variant.
	EventBuffer int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrency: 8,
		EventBuffer:    64,
	}
}

func (c EngineConfig) WithDefaults() EngineConfig {
	def := DefaultEngineConfig()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = def.MaxConcurrency
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = def.EventBuffer
	}
	return c
}
