package ports

import (
	"context"

	"github.com/eleven-am/nodeflow/internal/domain"
)

// WorkflowEngine executes validated graphs. Execute blocks until the run
// reaches a terminal status; ExecuteStream returns immediately and emits
// transition events as they occur, terminating with the event that carries
// the sealed Run.
type WorkflowEngine interface {
	Execute(ctx context.Context, graph *domain.Graph, input map[string]interface{}) (*domain.Run, error)
	ExecuteStream(ctx context.Context, graph *domain.Graph, input map[string]interface{}) <-chan domain.Event
}
