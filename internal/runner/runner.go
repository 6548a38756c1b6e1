package runner

import (
	"context"
	"sync"
	"time"

	"scalper_bot/internal/models"
	execsvc "scalper_bot/internal/modules/executor/service"
	journalsvc "scalper_bot/internal/modules/journal/service"
	"scalper_bot/internal/notify"
	"scalper_bot/pkg/logger"
)

const positionsSyncEvery = 30 * time.Second

// Runner владеет набором занятых сторон и исполняет намерения движка.
// По одной сделке на сторону: занятость выставляется локально сразу
// после успешного ордера и периодически сверяется с мостом, который
// и есть источник истины по открытым позициям.
type Runner struct {
	exec    *execsvc.Client
	journal *journalsvc.Journal
	n       notify.Notifier
	symbol  string

	mu     sync.Mutex
	active models.ActiveTradeSet
}

func New(exec *execsvc.Client, journal *journalsvc.Journal, n notify.Notifier, symbol string) *Runner {
	return &Runner{
		exec:    exec,
		journal: journal,
		n:       n,
		symbol:  symbol,
		active:  models.ActiveTradeSet{},
	}
}

// Snapshot — копия набора занятых сторон на время одной оценки.
func (r *Runner) Snapshot() models.ActiveTradeSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(models.ActiveTradeSet, len(r.active))
	for k, v := range r.active {
		out[k] = v
	}
	return out
}

// Run крутит два цикла до отмены контекста: исполнение намерений и
// периодическую сверку позиций.
func (r *Runner) Run(ctx context.Context, intents <-chan models.TradeIntent) {
	t := time.NewTicker(positionsSyncEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.syncPositions(ctx)
		case intent, ok := <-intents:
			if !ok {
				return
			}
			r.handle(ctx, intent)
		}
	}
}

func (r *Runner) handle(ctx context.Context, intent models.TradeIntent) {
	// защита от гонки: между оценкой и исполнением сторона могла заняться
	r.mu.Lock()
	busy := r.active[intent.Side]
	r.mu.Unlock()
	if busy {
		logger.Info("side %s busy, intent dropped: %s", intent.Side, intent.Reason)
		return
	}

	res, err := r.exec.PlaceOrder(ctx, intent)
	if err != nil {
		logger.Error("place order %s %s: %v", intent.Side, intent.Symbol, err)
		r.n.Sendf("❌ Ордер не прошёл: %s %s\n%v", intent.Side, intent.Symbol, err)
		return
	}

	r.mu.Lock()
	r.active[intent.Side] = true
	r.mu.Unlock()

	logger.Info("order placed: %s %s ticket=%d price=%.2f", intent.Side, intent.Symbol, res.Ticket, res.Price)
	r.n.Intent(intent)

	if r.journal != nil {
		if err := r.journal.SaveIntent(ctx, intent); err != nil {
			logger.Error("journal intent: %v", err)
		}
	}
}

func (r *Runner) syncPositions(ctx context.Context) {
	set, err := r.exec.OpenSides(ctx, r.symbol)
	if err != nil {
		logger.Error("sync positions: %v", err)
		return
	}
	r.mu.Lock()
	r.active = set
	r.mu.Unlock()
}
