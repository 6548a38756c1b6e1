package service

import (
	"context"

	"scalper_bot/internal/models"
	"scalper_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Journal — аудит решений движка в Postgres: каждый вход, пропуск и
// флип. Чтение — забота внешней аналитики, ядро только пишет.
type Journal struct {
	tm db.TxManager
}

func NewJournal(tm db.TxManager) *Journal {
	return &Journal{tm: tm}
}

const insertDecisionSQL = `
INSERT INTO decisions (ts, action, reason, zone_kind, zone_price, mode, trend)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (j *Journal) SaveDecision(ctx context.Context, d models.Decision) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Journal.SaveDecision")
		}
	}()

	return j.tm.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertDecisionSQL,
			d.Time, string(d.Action), d.Reason, string(d.ZoneKind), d.ZonePrice, string(d.Mode), string(d.Trend))
		return err
	})
}

const insertIntentSQL = `
INSERT INTO intents (ts, symbol, side, entry, sl, tp, zone_price, size_hint, strategy, reason, payload)
VALUES (now(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// SaveIntent пишет намерение целиком плюс сырой слепок на случай
// разбора полётов.
func (j *Journal) SaveIntent(ctx context.Context, intent models.TradeIntent) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Journal.SaveIntent")
		}
	}()

	payload, err := sonic.Marshal(intent)
	if err != nil {
		return err
	}

	return j.tm.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertIntentSQL,
			intent.Symbol, string(intent.Side), intent.Entry, intent.SL, intent.TP,
			intent.ZonePrice, intent.SizeHint, string(intent.Strategy), intent.Reason, payload)
		return err
	})
}
