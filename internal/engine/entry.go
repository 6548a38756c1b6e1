package engine

import (
	"math"

	"scalper_bot/internal/models"
)

// Построение намерения: стоп от экстремума теней текущей и предыдущей
// свечи с паддингом, тейк от риска, затем минимальная дистанция брокера.
//
// Порядок принципиален: сперва клэмпим стоп и пересчитываем риск и тейк
// от нового риска, и только потом клэмпим тейк. Так соотношение
// прибыль:риск сохраняется всегда, когда это вообще возможно.

func (e *Engine) stopPadding(mode models.StrategyMode, atr *float64) float64 {
	fixed := e.params.SLBufferPts * e.params.Point
	if atr == nil {
		return fixed
	}
	mult := e.params.ATRMultStrict
	if mode == models.ModeAggressive {
		mult = e.params.ATRMultFast
	}
	return math.Max(fixed, mult**atr)
}

func (e *Engine) buildIntent(side models.Side, curr, prev models.Candle, z models.Zone, sizeHint, minDist float64, in *Input, reason string) models.TradeIntent {
	padding := e.stopPadding(in.Mode, in.Indicators.ATR)
	entry := curr.Close

	var sl float64
	if side == models.SideBuy {
		sl = math.Min(curr.Low, prev.Low) - padding
	} else {
		sl = math.Max(curr.High, prev.High) + padding
	}

	tp := takeProfit(side, entry, sl, e.params.TPRatio)
	sl, tp = clampMinDistance(side, entry, sl, tp, minDist, e.params.TPRatio)

	return models.TradeIntent{
		Symbol:    e.params.Symbol,
		Side:      side,
		Entry:     entry,
		SL:        sl,
		TP:        tp,
		ZonePrice: z.Price,
		SizeHint:  sizeHint,
		Strategy:  in.Mode,
		Reason:    reason,
	}
}

func takeProfit(side models.Side, entry, sl, ratio float64) float64 {
	risk := math.Abs(entry - sl)
	if side == models.SideBuy {
		return entry + ratio*risk
	}
	return entry - ratio*risk
}

// clampMinDistance — двухфазная коррекция: стоп наружу до минимума,
// тейк пересчитывается от нового риска; затем тейк наружу до минимума.
func clampMinDistance(side models.Side, entry, sl, tp, minDist, ratio float64) (float64, float64) {
	if minDist <= 0 {
		return sl, tp
	}

	if math.Abs(entry-sl) < minDist {
		if side == models.SideBuy {
			sl = entry - minDist
		} else {
			sl = entry + minDist
		}
		tp = takeProfit(side, entry, sl, ratio)
	}

	if math.Abs(tp-entry) < minDist {
		if side == models.SideBuy {
			tp = entry + minDist
		} else {
			tp = entry - minDist
		}
	}
	return sl, tp
}
