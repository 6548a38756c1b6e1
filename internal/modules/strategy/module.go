package strategy

import (
	"context"
	"log"

	"scalper_bot/internal/models"
	journalsvc "scalper_bot/internal/modules/journal/service"
	mkt "scalper_bot/internal/modules/marketdata/service"
	"scalper_bot/internal/modules/strategy/service"
	"scalper_bot/internal/notify"
	"scalper_bot/internal/runner"

	"go.uber.org/fx"
)

func newIntentsChan() chan models.TradeIntent {
	return make(chan models.TradeIntent, 256)
}
func asSendOnlyIntents(ch chan models.TradeIntent) chan<- models.TradeIntent { return ch }
func asRecvOnlyIntents(ch chan models.TradeIntent) <-chan models.TradeIntent { return ch }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newIntentsChan,
			asSendOnlyIntents,
			asRecvOnlyIntents,
			func(n notify.Notifier) service.ServiceNotifier { return n },
			func(j *journalsvc.Journal) service.DecisionStore { return j },
			func(r *runner.Runner) service.ActiveTrades { return r },
			service.NewHub,
		),

		fx.Invoke(func(ctx context.Context, hub *service.Hub, ticks <-chan mkt.OutTick) {
			go func() {
				if err := hub.Warmup(ctx); err != nil {
					log.Printf("[STRAT] warmup failed, will fill from stream: %v", err)
				}
				log.Printf("[STRAT] hub loop started")
				for {
					select {
					case <-ctx.Done():
						log.Printf("[STRAT] hub loop stopped")
						return
					case t, ok := <-ticks:
						if !ok {
							log.Printf("[STRAT] ticks channel closed")
							return
						}
						hub.OnTick(ctx, t)
					}
				}
			}()
		}),
	)
}
