package engine

import (
	"fmt"
	"time"

	"scalper_bot/internal/filters"
	"scalper_bot/internal/models"
	"scalper_bot/internal/pattern"
)

// Фаза 2: инвалидированная зона с подтверждённым пробоем меняет вид на
// противоположный и переоценивается ровно один раз. Гейт тот же, что у
// strict-пути, плюс смягчённое требование к индикаторам: хотя бы один
// из трёх согласен; для быстрых зон и это требование снято.

func (e *Engine) applyFlip(in *Input, res *Result, fc flipCandidate, win []models.Candle, minDist float64) {
	flipped := fc.zone
	flipped.Kind = fc.zone.Kind.Opposite()
	flipped.Provenance = models.ProvenanceFlipped

	res.Flipped = append(res.Flipped, flipped)
	res.Decisions = append(res.Decisions, models.Decision{
		Time:      time.Now(),
		Action:    models.DecisionFlipped,
		Reason:    fmt.Sprintf("%s -> %s after invalidation", fc.zone.Kind, flipped.Kind),
		ZoneKind:  flipped.Kind,
		ZonePrice: flipped.Price,
		Mode:      in.Mode,
		Trend:     in.Trend,
	})

	e.evalFlipped(in, res, flipped, win, fc.sizeHint, minDist)
}

func (e *Engine) evalFlipped(in *Input, res *Result, z models.Zone, win []models.Candle, sizeHint, minDist float64) {
	c1, c2, c3 := win[len(win)-3], win[len(win)-2], win[len(win)-1]
	side := sideForKind(z.Kind)
	isFast := z.Origin == models.OriginFast

	paOK := false
	if z.Kind == models.ZoneDemand {
		paOK = pattern.BullishPinBar(c3) ||
			pattern.ValidEngulfing(c2, c3, models.SideBuy) ||
			pattern.MorningStar(c1, c2, c3) ||
			pattern.BullishRectangle(win)
	} else {
		paOK = pattern.BearishPinBar(c3) ||
			pattern.ValidEngulfing(c2, c3, models.SideSell) ||
			pattern.EveningStar(c1, c2, c3) ||
			pattern.BearishRectangle(win)
	}
	if !paOK && e.breakoutConfirmed(in.Trend, c3, z.Price) {
		paOK = true
	}

	rel := relCounterTrend
	if (side == models.SideBuy && in.Trend == models.TrendUp) ||
		(side == models.SideSell && in.Trend == models.TrendDown) {
		rel = relWithTrend
	}

	if !paOK || !fastTrendAgrees(side, in.FastTrend, rel, isFast) {
		res.skip(in, z, "flipped: no price action / fast timeframe against")
		return
	}

	if filters.Score(side, in.Indicators, in.Price) < 1 && !isFast {
		res.skip(in, z, "flipped: weak indicator backing")
		return
	}
	if in.Active[side] {
		return
	}

	intent := e.buildIntent(side, c3, c2, z, sizeHint, minDist, in,
		fmt.Sprintf("flipped %s instant", z.Kind))
	res.fire(in, z, intent)
}
