package engine

import (
	"fmt"

	"scalper_bot/internal/filters"
	"scalper_bot/internal/models"
	"scalper_bot/internal/pattern"
)

// Быстрые зоны: price action первичен, индикаторы аддитивны.
//
//	паттерн (любой сильный) ......... +2
//	отбой тенью (касание 1–2) ....... +2
//	MACD / RSI / VWAP согласны ...... +1 каждый
//
// Порог адаптивен к ATR: base 3, при ATR ≥ 2×полосы — 2,
// при ATR ≤ 0.8×полосы — 4. Сумма монотонна: любое дополнительное
// подтверждение счёт не уменьшает.

type scoreBreakdown struct {
	PA   int
	Wick int
	Ind  int
}

func (b scoreBreakdown) total() int { return b.PA + b.Wick + b.Ind }

func (e *Engine) scoreFastZone(in *Input, z models.Zone, win []models.Candle, touch int) (scoreBreakdown, int) {
	c1, c2, c3 := win[len(win)-3], win[len(win)-2], win[len(win)-1]
	side := sideForKind(z.Kind)

	var br scoreBreakdown

	var paHit bool
	if z.Kind == models.ZoneDemand {
		paHit = pattern.BullishPinBar(c3) ||
			pattern.BullishEngulfing(c2, c3) ||
			pattern.MorningStar(c1, c2, c3) ||
			pattern.BullishRectangle(win)
	} else {
		paHit = pattern.BearishPinBar(c3) ||
			pattern.BearishEngulfing(c2, c3) ||
			pattern.EveningStar(c1, c2, c3) ||
			pattern.BearishRectangle(win)
	}
	if paHit {
		br.PA = 2
	}
	if (touch == 1 || touch == 2) && pattern.WickRejection(c3, side, e.params.WickRatio) {
		br.Wick = 2
	}
	br.Ind = filters.Score(side, in.Indicators, in.Price)

	return br, e.fastThreshold(in.Indicators.ATR)
}

// fastThreshold — порог от волатильности: реактивнее на высоком ATR,
// строже в пиле.
func (e *Engine) fastThreshold(atr *float64) int {
	base := e.params.BaseThreshold
	if atr == nil {
		return base
	}
	bandWidth := e.params.CheckRangePts * e.params.Point
	switch {
	case *atr >= 2.0*bandWidth:
		if base-1 < 2 {
			return 2
		}
		return base - 1
	case *atr <= 0.8*bandWidth:
		return base + 1
	}
	return base
}

// evalFast — путь быстрых зон, только агрессивный режим.
func (e *Engine) evalFast(in *Input, res *Result, z models.Zone, win []models.Candle, touch int, sizeHint, minDist float64) {
	side := sideForKind(z.Kind)

	br, threshold := e.scoreFastZone(in, z, win, touch)
	total := br.total()

	if !fastTrendAgrees(side, in.FastTrend, tradeTrendType(z.Kind, in.Trend), true) {
		res.skip(in, z, "fast timeframe disagrees (FAST)")
		return
	}

	if total < threshold {
		res.skip(in, z, fmt.Sprintf("score %d below threshold %d (PA:%d Wick:%d Ind:%d)",
			total, threshold, br.PA, br.Wick, br.Ind))
		return
	}
	if in.Active[side] {
		return // не стакаем одну сторону
	}

	c2, c3 := win[len(win)-2], win[len(win)-1]
	intent := e.buildIntent(side, c3, c2, z, sizeHint, minDist, in,
		fmt.Sprintf("FAST score=%d (need>=%d)", total, threshold))
	res.fire(in, z, intent)
}
