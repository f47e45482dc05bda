package observability

import (
	"log/slog"

	"github.com/aretw0/intentflow/pkg/domain"
)

// LoggingHooks logs every operation and history change.
// Failed operations are logged at warn level.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnOperation: func(e *domain.OperationEvent) {
			if e.Err != nil {
				logger.Warn("operation failed", "op", e.Op, "node_id", e.NodeID, "err", e.Err)
				return
			}
			logger.Info("operation", "op", e.Op, "node_id", e.NodeID, "edge_id", e.EdgeID)
		},
		OnHistory: func(e *domain.HistoryEvent) {
			logger.Debug(string(e.Type), "depth", e.Depth, "redo_depth", e.RedoDepth, "nodes", e.Nodes, "edges", e.Edges)
		},
	}
}

// Combine fans every event out to all hooks in order. Nil callbacks are skipped.
func Combine(hooks ...domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnOperation: func(e *domain.OperationEvent) {
			for _, h := range hooks {
				if h.OnOperation != nil {
					h.OnOperation(e)
				}
			}
		},
		OnHistory: func(e *domain.HistoryEvent) {
			for _, h := range hooks {
				if h.OnHistory != nil {
					h.OnHistory(e)
				}
			}
		},
	}
}
