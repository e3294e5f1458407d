package nodeflow

import (
	"log/slog"
	"time"

	"dario.cat/mergo"

	"github.com/eleven-am/nodeflow/internal/domain"
	"github.com/eleven-am/nodeflow/internal/ports"
)

// EngineConfig tunes the scheduler.
type EngineConfig = domain.EngineConfig

// Config configures a new engine. Zero-valued fields fall back to
// DefaultConfig.
type Config struct {
	// MaxConcurrency bounds how many nodes of one ready-group run at
	// once.
	MaxConcurrency int

	// DefaultNodeTimeout applies to every node that does not declare its
	// own timeout. Zero means no timeout.
	DefaultNodeTimeout time.Duration

	// EventBuffer sizes the event channel returned by ExecuteStream. The
	// scheduler blocks on a full buffer, so the consumer must keep
	// draining until the channel closes.
	EventBuffer int

	// Sink receives node transition boundaries. Nil installs a no-op
	// sink.
	Sink ports.Sink

	// Logger receives engine diagnostics. Nil installs slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	def := domain.DefaultEngineConfig()
	return Config{
		MaxConcurrency: def.MaxConcurrency,
		EventBuffer:    def.EventBuffer,
	}
}

func (c Config) engineConfig() EngineConfig {
	merged := c
	if err := mergo.Merge(&merged, DefaultConfig()); err != nil {
		merged = DefaultConfig()
	}
	return EngineConfig{
		MaxConcurrency:     merged.MaxConcurrency,
		DefaultNodeTimeout: merged.DefaultNodeTimeout,
		EventBuffer:        merged.EventBuffer,
	}
}
