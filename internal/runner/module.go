package runner

import (
	"context"

	"scalper_bot/internal/models"
	appcfg "scalper_bot/internal/modules/config"
	execsvc "scalper_bot/internal/modules/executor/service"
	journalsvc "scalper_bot/internal/modules/journal/service"
	"scalper_bot/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *appcfg.Config, exec *execsvc.Client, j *journalsvc.Journal, n notify.Notifier) *Runner {
				return New(exec, j, n, cfg.Strategy.Symbol)
			},
		),
		fx.Invoke(func(ctx context.Context, r *Runner, intents <-chan models.TradeIntent) {
			go r.Run(ctx, intents)
		}),
	)
}
