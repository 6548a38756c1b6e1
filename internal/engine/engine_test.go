package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper_bot/internal/models"
	"scalper_bot/internal/zones"
)

func testParams() Params {
	return Params{
		Symbol:         "Volatility 75 Index",
		Point:          0.01,
		SLBufferPts:    50,  // паддинг 0.5 цены
		TPRatio:        2,
		CheckRangePts:  100, // полоса 1.0 цены
		FallbackMinPts: 10,  // минимум 0.1 цены
		BreakoutMin:    0.5,
		LotSize:        0.01,
		ATRMultFast:    2.5,
		ATRMultStrict:  2.0,
		BaseThreshold:  3,
		WickRatio:      1.5,
	}
}

func bar(o, h, l, c float64, minute int) models.Candle {
	return models.Candle{
		Open: o, High: h, Low: l, Close: c,
		Time: time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC),
	}
}

func fptr(v float64) *float64 { return &v }

// Окно, где предыдущая свеча задевает полосу зоны 100.00, а последняя —
// бычий пин-бар (тело 0.2, нижняя тень 0.6).
func pinBarWindow() []models.Candle {
	return []models.Candle{
		bar(101.4, 101.6, 101.2, 101.3, 0),
		bar(101.2, 101.3, 100.5, 101.0, 1),
		bar(100.8, 101.05, 100.2, 101.0, 2),
	}
}

func demandZone(price float64) models.Zone {
	return models.Zone{
		Price:      price,
		Kind:       models.ZoneDemand,
		Origin:     models.OriginStrict,
		Provenance: models.ProvenanceOriginal,
	}
}

func TestEvaluateInsufficientWindow(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))
	_, err := e.Evaluate(Input{Window: pinBarWindow()[:2]})
	assert.ErrorIs(t, err, ErrInsufficientWindow)
}

func TestStrictDemandPinBarFiresOnThirdTouch(t *testing.T) {
	tr := zones.NewTracker(30 * time.Second)
	e := New(testParams(), tr)

	// два касания уже в истории уровня, текущая свеча даёт третье
	t0 := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tr.Update(100.0, t0, true)
	tr.Update(100.0, t0.Add(time.Minute), false)
	tr.Update(100.0, t0.Add(2*time.Minute), true)
	tr.Update(100.0, t0.Add(3*time.Minute), false)

	res, err := e.Evaluate(Input{
		Mode:   models.ModeTrendFollow,
		Price:  101.0,
		Trend:  models.TrendUp,
		Demand: []models.Zone{demandZone(100.0)},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
	})
	require.NoError(t, err)
	require.Len(t, res.Intents, 1)

	intent := res.Intents[0]
	assert.Equal(t, models.SideBuy, intent.Side)
	assert.Equal(t, "bullish pin bar + wick", intent.Reason)
	assert.Equal(t, 101.0, intent.Entry) // вход по закрытию
	// стоп: min(low тек., low пред.) − паддинг = 100.2 − 0.5
	assert.InDelta(t, 99.7, intent.SL, 1e-9)
	// тейк: entry + 2 × риск = 101 + 2×1.3
	assert.InDelta(t, 103.6, intent.TP, 1e-9)
	assert.Equal(t, 0.01, intent.SizeHint)

	require.Len(t, res.Decisions, 1)
	assert.Equal(t, models.DecisionFired, res.Decisions[0].Action)
}

func TestStrictDemandBlockedByDowntrend(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	res, err := e.Evaluate(Input{
		Mode:   models.ModeTrendFollow,
		Price:  101.0,
		Trend:  models.TrendDown,
		Demand: []models.Zone{demandZone(100.0)},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Intents)
	require.Len(t, res.Decisions, 1)
	assert.Contains(t, res.Decisions[0].Reason, "directional filter")
}

func TestStrictActiveSideSilentlySkipped(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	res, err := e.Evaluate(Input{
		Mode:   models.ModeTrendFollow,
		Price:  101.0,
		Trend:  models.TrendUp,
		Demand: []models.Zone{demandZone(100.0)},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{models.SideBuy: true},
	})
	require.NoError(t, err)
	// занятая сторона: ни сигнала, ни записи о пропуске
	assert.Empty(t, res.Intents)
	assert.Empty(t, res.Decisions)
}

func TestFastZoneHighATRLowersThreshold(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	z := demandZone(100.0)
	z.Origin = models.OriginFast

	res, err := e.Evaluate(Input{
		Mode:   models.ModeAggressive,
		Price:  101.0,
		Trend:  models.TrendUp,
		Demand: []models.Zone{z},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
		// ATR 2.5 ≥ 2×полосы(1.0) → порог 2; пин-бар(+2) и тень(+2) хватает
		// даже без единого индикатора
		Indicators: models.IndicatorSnapshot{ATR: fptr(2.5)},
	})
	require.NoError(t, err)
	require.Len(t, res.Intents, 1)

	intent := res.Intents[0]
	assert.Equal(t, "FAST score=4 (need>=2)", intent.Reason)
	// быстрые зоны торгуются половинным объёмом
	assert.Equal(t, 0.005, intent.SizeHint)
	// паддинг стопа от ATR: max(0.5, 2.5×2.5) = 6.25
	assert.InDelta(t, 100.2-6.25, intent.SL, 1e-9)
}

func TestFastZoneLowATRRaisesThreshold(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	z := demandZone(100.0)
	z.Origin = models.OriginFast

	res, err := e.Evaluate(Input{
		Mode:   models.ModeAggressive,
		Price:  101.0,
		Trend:  models.TrendUp,
		Demand: []models.Zone{z},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
		// ATR 0.5 ≤ 0.8×полосы → порог 4; пин-бар и тень дают ровно 4
		Indicators: models.IndicatorSnapshot{ATR: fptr(0.5)},
	})
	require.NoError(t, err)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, "FAST score=4 (need>=4)", res.Intents[0].Reason)
}

func TestFastScoreBelowThresholdSkips(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	z := demandZone(100.0)
	z.Origin = models.OriginFast

	// без паттерна и без отбоя тенью: обычная свеча у зоны
	win := []models.Candle{
		bar(101.4, 101.6, 101.2, 101.3, 0),
		bar(101.2, 101.3, 100.5, 101.0, 1),
		bar(101.0, 101.3, 100.9, 101.2, 2),
	}

	res, err := e.Evaluate(Input{
		Mode:   models.ModeAggressive,
		Price:  101.2,
		Trend:  models.TrendUp,
		Demand: []models.Zone{z},
		Window: win,
		Active: models.ActiveTradeSet{},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Intents)
	require.Len(t, res.Decisions, 1)
	assert.Contains(t, res.Decisions[0].Reason, "below threshold")
}

func TestInvalidationWithoutBreakoutRetiresZone(t *testing.T) {
	tr := zones.NewTracker(30 * time.Second)
	e := New(testParams(), tr)

	t0 := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	// три касания уже в истории уровня
	tr.Update(100.0, t0, true)
	tr.Update(100.0, t0.Add(time.Minute), false)
	tr.Update(100.0, t0.Add(2*time.Minute), true)
	tr.Update(100.0, t0.Add(3*time.Minute), false)
	tr.Update(100.0, t0.Add(4*time.Minute), true)
	tr.Update(100.0, t0.Add(5*time.Minute), false)

	res, err := e.Evaluate(Input{
		Mode:   models.ModeAggressive,
		Price:  101.0,
		Trend:  models.TrendSideways, // пробой в боковике не подтверждается
		Demand: []models.Zone{demandZone(100.0)},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Intents)
	assert.Empty(t, res.Flipped)
	require.Len(t, res.Decisions, 1)
	assert.Contains(t, res.Decisions[0].Reason, "invalidated after 4 touches")

	// состояние уровня снято: следующий цикл начнёт с касания №1
	_, ok := tr.State(100.0)
	assert.False(t, ok)
}

func TestInvalidationWithBreakoutFlips(t *testing.T) {
	tr := zones.NewTracker(30 * time.Second)
	e := New(testParams(), tr)

	t0 := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tr.Update(100.0, t0, true)
	tr.Update(100.0, t0.Add(time.Minute), false)
	tr.Update(100.0, t0.Add(2*time.Minute), true)
	tr.Update(100.0, t0.Add(3*time.Minute), false)
	tr.Update(100.0, t0.Add(4*time.Minute), true)
	tr.Update(100.0, t0.Add(5*time.Minute), false)

	res, err := e.Evaluate(Input{
		Mode:   models.ModeTrendFollow,
		Price:  101.0,
		Trend:  models.TrendUp, // закрытие 101.0 за зоной больше BreakoutMin
		Demand: []models.Zone{demandZone(100.0)},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
		// хотя бы один индикатор за продажу для мгновенной переоценки
		Indicators: models.IndicatorSnapshot{RSI: []float64{80, 75}},
	})
	require.NoError(t, err)

	require.Len(t, res.Flipped, 1)
	flipped := res.Flipped[0]
	assert.Equal(t, models.ZoneSupply, flipped.Kind)
	assert.Equal(t, models.ProvenanceFlipped, flipped.Provenance)
	assert.Equal(t, 100.0, flipped.Price)

	// мгновенная переоценка: пробой — это price action для флипа
	require.Len(t, res.Intents, 1)
	assert.Equal(t, models.SideSell, res.Intents[0].Side)
	assert.Equal(t, "flipped supply instant", res.Intents[0].Reason)
}

func TestFalseBreakoutBlockedWhenTrending(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	// пробой зоны спроса вниз и поглощение назад, но тренд направленный
	win := []models.Candle{
		bar(100.0, 100.5, 99.9, 100.1, 0),
		bar(100.1, 100.4, 98.5, 100.3, 1),
		bar(100.5, 100.6, 98.4, 98.5, 2),
	}
	ind := models.IndicatorSnapshot{
		MACD:       []float64{0.5, -0.5},
		MACDSignal: []float64{0, 0},
		RSI:        []float64{65, 75},
		VWAP:       fptr(105),
	}

	res, err := e.Evaluate(Input{
		Mode:       models.ModeTrendFollow,
		Price:      98.5,
		Trend:      models.TrendUp,
		Demand:     []models.Zone{demandZone(100.0)},
		Window:     win,
		Active:     models.ActiveTradeSet{},
		Indicators: ind,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Intents)
	found := false
	for _, d := range res.Decisions {
		if d.Reason == "reversal blocked: trending market" {
			found = true
		}
	}
	assert.True(t, found, "ожидали блокировку разворота по тренду, решения: %v", res.Decisions)
}

func TestFalseBreakoutFiresInSideways(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	win := []models.Candle{
		bar(100.0, 100.5, 99.9, 100.1, 0),
		bar(100.1, 100.4, 98.5, 100.3, 1),
		// закрытие 98.4 на 1.6 ниже зоны: глубже 1.5 полосы
		bar(100.5, 100.6, 98.3, 98.4, 2),
	}
	ind := models.IndicatorSnapshot{
		MACD:       []float64{0.5, -0.5},
		MACDSignal: []float64{0, 0},
		RSI:        []float64{65, 75},
		VWAP:       fptr(105),
	}

	res, err := e.Evaluate(Input{
		Mode:       models.ModeAggressive,
		Price:      98.4,
		Trend:      models.TrendSideways,
		FastTrend:  models.TrendDown, // контртренд требует совпадения направления
		Demand:     []models.Zone{demandZone(100.0)},
		Window:     win,
		Active:     models.ActiveTradeSet{},
		Indicators: ind,
	})
	require.NoError(t, err)

	require.Len(t, res.Intents, 1)
	intent := res.Intents[0]
	assert.Equal(t, models.SideSell, intent.Side)
	assert.Equal(t, "false breakout reversal", intent.Reason)
	// стоп: max(high тек., high пред.) + фиксированный буфер 0.5
	assert.InDelta(t, 101.1, intent.SL, 1e-9)
}

func TestMalformedZoneSkippedAlone(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	res, err := e.Evaluate(Input{
		Mode:  models.ModeTrendFollow,
		Price: 101.0,
		Trend: models.TrendUp,
		Demand: []models.Zone{
			{Price: 99.0, Kind: "junk"},
			demandZone(100.0),
		},
		Window: pinBarWindow(),
		Active: models.ActiveTradeSet{},
	})
	require.NoError(t, err)

	// битая зона пропущена, соседняя отработала
	require.Len(t, res.Intents, 1)
	found := false
	for _, d := range res.Decisions {
		if d.ZonePrice == 99.0 {
			assert.Contains(t, d.Reason, "malformed zone kind")
			found = true
		}
	}
	assert.True(t, found)
}

func TestFastThresholdMonotonicity(t *testing.T) {
	e := New(testParams(), zones.NewTracker(30*time.Second))

	assert.Equal(t, 3, e.fastThreshold(nil))
	assert.Equal(t, 2, e.fastThreshold(fptr(2.0)))  // = 2×полосы
	assert.Equal(t, 3, e.fastThreshold(fptr(1.0)))  // середина
	assert.Equal(t, 4, e.fastThreshold(fptr(0.8)))  // = 0.8×полосы
	assert.Equal(t, 4, e.fastThreshold(fptr(0.1)))
}
