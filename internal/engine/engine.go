package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"scalper_bot/internal/models"
	"scalper_bot/internal/pattern"
	"scalper_bot/internal/zones"
)

// ErrInsufficientWindow — слепок рынка неполный, оценка этого цикла
// пропускается целиком, состояние не трогаем.
var ErrInsufficientWindow = errors.New("engine: not enough bars in entry window")

// Params — настройки движка. Все дистанции в пунктах умножаются на Point.
type Params struct {
	Symbol         string
	Point          float64
	SLBufferPts    float64 // фиксированный паддинг стопа, в пунктах
	TPRatio        float64 // тейк = entry ± TPRatio × риск
	CheckRangePts  float64 // полоса близости к зоне, в пунктах
	FallbackMinPts float64 // минимум SL/TP, если брокер не дал свой
	BreakoutMin    float64 // минимальный выход close за зону (в ценах)
	LotSize        float64
	ATRMultFast    float64 // паддинг стопа в агрессивном режиме
	ATRMultStrict  float64
	BaseThreshold  int // базовый порог быстрого скоринга
	WickRatio      float64
}

// Input — полный слепок одного прохода. Tracker и ActiveTradeSet
// принадлежат вызывающему, движок их мутирует только внутри Evaluate.
type Input struct {
	Mode      models.StrategyMode
	Price     float64 // текущий bid
	Trend     models.Trend
	FastTrend models.Trend // быстрый подтверждающий таймфрейм

	Demand []models.Zone // strict + fast вместе
	Supply []models.Zone

	Window []models.Candle // входной таймфрейм, минимум 3 закрытые свечи
	Active models.ActiveTradeSet

	Indicators  models.IndicatorSnapshot
	MinDistance float64 // брокерский минимум SL/TP в ценах; 0 → fallback
}

type Result struct {
	Intents   []models.TradeIntent
	Flipped   []models.Zone
	Decisions []models.Decision
}

// Engine — детерминированное ядро решений: касания, подтверждения,
// скоринг, инвалидация с флипом. Синхронный, один вызов на свечу.
type Engine struct {
	params  Params
	tracker *zones.Tracker
}

func New(params Params, tracker *zones.Tracker) *Engine {
	return &Engine{params: params, tracker: tracker}
}

// flipCandidate — фаза 1 только собирает кандидатов, фаза 2 применяет
// флип и делает ровно одну переоценку. Никакой рекурсии.
type flipCandidate struct {
	zone     models.Zone
	sizeHint float64
}

// Evaluate прокручивает все зоны на одной закрытой свече.
func (e *Engine) Evaluate(in Input) (Result, error) {
	if len(in.Window) < 3 {
		return Result{}, ErrInsufficientWindow
	}

	var res Result

	win := in.Window
	if len(win) > 5 {
		win = win[len(win)-5:]
	}
	c2, c3 := win[len(win)-2], win[len(win)-1]
	barTime := c3.Time

	band := e.params.CheckRangePts * e.params.Point
	minDist := in.MinDistance
	if minDist <= 0 {
		minDist = e.params.FallbackMinPts * e.params.Point
	}

	var flips []flipCandidate

	all := make([]models.Zone, 0, len(in.Demand)+len(in.Supply))
	all = append(all, in.Demand...)
	all = append(all, in.Supply...)

	for _, z := range all {
		if z.Kind != models.ZoneDemand && z.Kind != models.ZoneSupply {
			// MalformedZone: пропускаем только её
			res.skip(&in, z, fmt.Sprintf("malformed zone kind %q", z.Kind))
			continue
		}

		sizeHint := e.params.LotSize
		if z.Origin == models.OriginFast {
			sizeHint = e.params.LotSize / 2
		}

		// касание меряем по экстремуму предыдущей свечи
		check := c2.Low
		if z.Kind == models.ZoneSupply {
			check = c2.High
		}
		inZone := math.Abs(check-z.Price) < band
		touch := e.tracker.Update(z.Price, barTime, inZone)

		// ----- инвалидация и сбор кандидатов на флип
		if touch >= 4 {
			if e.breakoutConfirmed(in.Trend, c3, z.Price) {
				flips = append(flips, flipCandidate{zone: z, sizeHint: sizeHint})
			} else {
				res.skip(&in, z, fmt.Sprintf("invalidated after %d touches, no breakout", touch))
			}
			e.tracker.Reset(z.Price)
			continue
		}

		// ----- направляющий фильтр тренда (только trend_follow)
		if in.Mode == models.ModeTrendFollow {
			if z.Kind == models.ZoneSupply && in.Trend == models.TrendUp {
				res.skip(&in, z, "directional filter (uptrend)")
				continue
			}
			if z.Kind == models.ZoneDemand && in.Trend == models.TrendDown {
				res.skip(&in, z, "directional filter (downtrend)")
				continue
			}
		}

		if touch >= 1 && touch <= 3 {
			if in.Mode == models.ModeAggressive && z.Origin == models.OriginFast {
				e.evalFast(&in, &res, z, win, touch, sizeHint, minDist)
			} else {
				e.evalStrict(&in, &res, z, win, touch, sizeHint, minDist)
			}
		}

		// ----- фейковый пробой проверяется каждую свечу, независимо от касаний
		e.evalFalseBreakout(&in, &res, z, c2, c3, band, minDist, sizeHint)
	}

	// фаза 2: применяем флипы и делаем одну ограниченную переоценку
	for _, fc := range flips {
		e.applyFlip(&in, &res, fc, win, minDist)
	}

	return res, nil
}

// evalStrict — детерминированный гейт для strict-зон (касания 1..3):
// пин-бар, поглощение или пробойное закрытие за зоной. Отбой тенью
// заменяет фильтр быстрого таймфрейма: price action важнее фильтра.
func (e *Engine) evalStrict(in *Input, res *Result, z models.Zone, win []models.Candle, touch int, sizeHint, minDist float64) {
	c2, c3 := win[len(win)-2], win[len(win)-1]

	if in.Mode == models.ModeTrendFollow {
		if (z.Kind == models.ZoneDemand && in.Trend != models.TrendUp) ||
			(z.Kind == models.ZoneSupply && in.Trend != models.TrendDown) {
			res.skip(in, z, fmt.Sprintf("trend mismatch (%s)", in.Trend))
			return
		}
	}

	side := models.SideBuy
	if z.Kind == models.ZoneSupply {
		side = models.SideSell
	}

	confirmed := false
	reason := ""
	switch {
	case z.Kind == models.ZoneDemand && pattern.BullishPinBar(c3):
		confirmed, reason = true, "bullish pin bar"
	case z.Kind == models.ZoneSupply && pattern.BearishPinBar(c3):
		confirmed, reason = true, "bearish pin bar"
	case z.Kind == models.ZoneDemand && pattern.ValidEngulfing(c2, c3, models.SideBuy):
		confirmed, reason = true, "bullish engulfing"
	case z.Kind == models.ZoneSupply && pattern.ValidEngulfing(c2, c3, models.SideSell):
		confirmed, reason = true, "bearish engulfing"
	case e.breakoutConfirmed(in.Trend, c3, z.Price):
		confirmed, reason = true, "breakout"
	}

	if !confirmed {
		res.skip(in, z, "no confirmation")
		return
	}

	wickOK := pattern.WickRejection(c3, side, e.params.WickRatio)
	if !wickOK && !fastTrendAgrees(side, in.FastTrend, tradeTrendType(z.Kind, in.Trend), false) {
		res.skip(in, z, "fast timeframe disagrees")
		return
	}

	if in.Active[side] {
		return // одна сделка на сторону, молча
	}

	if wickOK {
		reason += " + wick"
	}
	intent := e.buildIntent(side, c3, c2, z, sizeHint, minDist, in, reason)
	res.fire(in, z, intent)
}

// breakoutConfirmed — закрытие ушло за зону в сторону тренда не меньше
// чем на BreakoutMin.
func (e *Engine) breakoutConfirmed(trend models.Trend, c models.Candle, zonePrice float64) bool {
	switch trend {
	case models.TrendUp:
		return c.Close-zonePrice > e.params.BreakoutMin
	case models.TrendDown:
		return zonePrice-c.Close > e.params.BreakoutMin
	}
	return false
}

// trendRelation — сделка по тренду или контртренд.
type trendRelation string

const (
	relWithTrend    trendRelation = "with_trend"
	relCounterTrend trendRelation = "counter_trend"
)

// tradeTrendType — отношение сделки к тренду, по виду зоны.
func tradeTrendType(kind models.ZoneKind, trend models.Trend) trendRelation {
	if (kind == models.ZoneDemand && trend == models.TrendUp) ||
		(kind == models.ZoneSupply && trend == models.TrendDown) {
		return relWithTrend
	}
	return relCounterTrend
}

// fastTrendAgrees — фильтр быстрого таймфрейма.
// Нет данных → пропускаем. Для быстрых зон фильтр мягкий: блокирует
// только прямое противоречие. Контртренд требует совпадения направления.
func fastTrendAgrees(side models.Side, fast models.Trend, rel trendRelation, isFast bool) bool {
	if fast == models.TrendNone {
		return true
	}
	if isFast {
		if side == models.SideBuy && fast == models.TrendDown {
			return false
		}
		if side == models.SideSell && fast == models.TrendUp {
			return false
		}
		return true
	}
	if rel == relWithTrend {
		if side == models.SideBuy {
			return fast == models.TrendUp || fast == models.TrendSideways
		}
		return fast == models.TrendDown || fast == models.TrendSideways
	}
	if side == models.SideBuy {
		return fast == models.TrendUp
	}
	return fast == models.TrendDown
}

func sideForKind(kind models.ZoneKind) models.Side {
	if kind == models.ZoneDemand {
		return models.SideBuy
	}
	return models.SideSell
}

func (r *Result) skip(in *Input, z models.Zone, reason string) {
	r.Decisions = append(r.Decisions, models.Decision{
		Time:      time.Now(),
		Action:    models.DecisionSkipped,
		Reason:    reason,
		ZoneKind:  z.Kind,
		ZonePrice: z.Price,
		Mode:      in.Mode,
		Trend:     in.Trend,
	})
}

func (r *Result) fire(in *Input, z models.Zone, intent models.TradeIntent) {
	r.Intents = append(r.Intents, intent)
	r.Decisions = append(r.Decisions, models.Decision{
		Time:      time.Now(),
		Action:    models.DecisionFired,
		Reason:    intent.Reason,
		ZoneKind:  z.Kind,
		ZonePrice: z.Price,
		Mode:      in.Mode,
		Trend:     in.Trend,
	})
}
