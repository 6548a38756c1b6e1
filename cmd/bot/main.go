package main

import (
	"context"
	"log"

	engcfg "scalper_bot/internal/config"
	"scalper_bot/internal/modules/config"
	"scalper_bot/internal/modules/executor"
	"scalper_bot/internal/modules/health"
	"scalper_bot/internal/modules/journal"
	"scalper_bot/internal/modules/marketdata"
	"scalper_bot/internal/modules/strategy"
	"scalper_bot/internal/notify"
	"scalper_bot/internal/runner"
	"scalper_bot/pkg/logger"
	"scalper_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			engcfg.LoadEngineParams,
			newNotifier,
		),
		config.Module(),
		health.Module(),
		marketdata.Module(),
		journal.Module(),
		executor.Module(),
		runner.Module(),
		strategy.Module(),
		fx.Invoke(initTracing),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) {
	if cfg.Jaeger.Host == "" {
		return
	}
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
}

// Без токена телеграма живём на заглушке: движку всё равно, куда уходят
// уведомления.
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token == "" {
		return notify.Nop{}
	}
	n, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		log.Printf("telegram unavailable, falling back to nop: %v", err)
		return notify.Nop{}
	}
	return n
}
