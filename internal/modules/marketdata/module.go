package marketdata

import (
	"context"
	"log"

	"scalper_bot/internal/modules/config"
	"scalper_bot/internal/modules/marketdata/service"

	"go.uber.org/fx"
)

func newTicksChan() chan service.OutTick {
	return make(chan service.OutTick, 4096)
}
func asRecvOnlyTicks(ch chan service.OutTick) <-chan service.OutTick { return ch }

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewClient,
			newTicksChan,
			asRecvOnlyTicks,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, cfg *config.Config, ticks chan service.OutTick, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					tfs := []string{cfg.Strategy.TF, cfg.Strategy.FastTF, cfg.Strategy.ZoneTF}
					go func() {
						log.Printf("[MARKET] ▶️ стрим %s %v", cfg.Strategy.Symbol, tfs)
						c.Stream(ctx, cfg.Strategy.Symbol, tfs, ticks)
					}()
					return nil
				},
			})
		}),
	)
}
