package manager

import (
	"duedesk/internal/api"
	"duedesk/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"manager",
		fx.Provide(func(client *api.Client, cfg config.Config, logger *zap.Logger) *Manager {
			source := reportViews[0].Path
			if rv, ok := FindReportView(cfg.DefaultView); ok {
				source = rv.Path
			}
			return New(client, source, logger)
		}),
	)
}
