package main

import (
	"log/slog"

	"github.com/aretw0/intentflow/internal/config"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/observability"
	"github.com/aretw0/intentflow/pkg/session"
)

// openWorkspace builds the session manager shared by serve, mcp and edit.
// metrics may be nil.
func openWorkspace(cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*session.Manager, error) {
	store, err := snapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	f, err := codec.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return session.NewManager(store,
		session.WithLogger(logger),
		session.WithFormat(f),
		session.WithEditorOptions(editorOptions(cfg, logger)...),
		session.WithHooksFor(func(bot string) domain.Hooks {
			hooks := observability.LoggingHooks(logger.With("bot", bot))
			if metrics == nil {
				return hooks
			}
			return observability.Combine(hooks, metrics.Hooks(bot))
		}),
	), nil
}
