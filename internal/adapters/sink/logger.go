package sink

import (
	"log/slog"
	"time"
)

// Logger writes node transitions to structured logs.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "node-run-log")}
}

func (l *Logger) OnNodeStart(runID, nodeID string, inputs map[string]interface{}) {
	l.logger.Info("node started", "run_id", runID, "node_id", nodeID, "input_ports", len(inputs))
}

func (l *Logger) OnNodeEnd(runID, nodeID string, outputs map[string]interface{}, err error, duration time.Duration) {
	if err != nil {
		l.logger.Error("node finished with error",
			"run_id", runID,
			"node_id", nodeID,
			"duration", duration,
			"error", err.Error(),
		)
		return
	}
	l.logger.Info("node finished",
		"run_id", runID,
		"node_id", nodeID,
		"duration", duration,
		"output_ports", len(outputs),
	)
}
