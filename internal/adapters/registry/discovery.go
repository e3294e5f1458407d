package registry

import (
	"log/slog"

	"github.com/eleven-am/nodeflow/internal/ports"
)

// Discover runs every extension registration callback exactly once and then
// seals the registry. It is the startup-only step that lets installed
// extension packages contribute node types; the engine itself never
// registers or discovers anything.
//
// The first failing callback aborts discovery: a broken extension is a
// startup configuration error, not something to limp past.
func Discover(reg ports.NodeRegistry, logger *slog.Logger, extensions ...ports.Extension) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "node-discovery")

	for i, ext := range extensions {
		if err := ext(reg); err != nil {
			logger.Error("extension registration failed", "extension_index", i, "error", err)
			return err
		}
		logger.Debug("extension registered", "extension_index", i)
	}

	reg.Seal()
	logger.Info("node discovery complete", "extensions", len(extensions))
	return nil
}
