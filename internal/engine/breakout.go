package engine

import (
	"math"

	"scalper_bot/internal/filters"
	"scalper_bot/internal/models"
	"scalper_bot/internal/pattern"
)

// Разворот на фейковом пробое. Проверяется каждую свечу по каждой зоне,
// независимо от счётчика касаний. Условия жёсткие, все сразу:
//   - строгое поглощение назад сквозь зону со стороны пробоя;
//   - старший тренд нейтрален (в тренде фейки не торгуем);
//   - все три индикатора согласны с разворотом;
//   - закрытие прошло зону минимум на 1.5 полосы;
//   - быстрый таймфрейм не против.

func (e *Engine) evalFalseBreakout(in *Input, res *Result, z models.Zone, c2, c3 models.Candle, band, minDist, sizeHint float64) {
	var reverseSide models.Side
	var crossed bool
	if z.Kind == models.ZoneDemand {
		// пробой зоны спроса вниз и возврат-поглощение
		reverseSide = models.SideSell
		crossed = c2.Close > z.Price && c3.Close < z.Price && pattern.ValidEngulfing(c2, c3, models.SideSell)
	} else {
		reverseSide = models.SideBuy
		crossed = c2.Close < z.Price && c3.Close > z.Price && pattern.ValidEngulfing(c2, c3, models.SideBuy)
	}
	if !crossed {
		return
	}

	if in.Trend != models.TrendSideways {
		res.skip(in, z, "reversal blocked: trending market")
		return
	}
	if !filters.Present(in.Indicators) {
		res.skip(in, z, "reversal blocked: missing indicators")
		return
	}
	if !filters.AllConfirm(reverseSide, in.Indicators, in.Price) {
		res.skip(in, z, "reversal blocked: indicators disagree")
		return
	}

	if math.Abs(c3.Close-z.Price) < 1.5*band {
		res.skip(in, z, "shallow fakeout ignored")
		return
	}

	if !fastTrendAgrees(reverseSide, in.FastTrend, relCounterTrend, z.Origin == models.OriginFast) {
		res.skip(in, z, "reversal blocked: fast timeframe against")
		return
	}
	if in.Active[reverseSide] {
		return
	}

	// стоп на фиксированном буфере: ATR тут не при чём, геометрия фейка
	// задаётся экстремумом пробойной пары свечей
	buffer := e.params.SLBufferPts * e.params.Point
	entry := c3.Close
	var sl float64
	if reverseSide == models.SideSell {
		sl = math.Max(c3.High, c2.High) + buffer
	} else {
		sl = math.Min(c3.Low, c2.Low) - buffer
	}
	tp := takeProfit(reverseSide, entry, sl, e.params.TPRatio)
	sl, tp = clampMinDistance(reverseSide, entry, sl, tp, minDist, e.params.TPRatio)

	res.fire(in, z, models.TradeIntent{
		Symbol:    e.params.Symbol,
		Side:      reverseSide,
		Entry:     entry,
		SL:        sl,
		TP:        tp,
		ZonePrice: z.Price,
		SizeHint:  sizeHint,
		Strategy:  in.Mode,
		Reason:    "false breakout reversal",
	})
}
