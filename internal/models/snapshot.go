package models

// Trend — грубая классификация тренда таймфрейма.
type Trend string

const (
	TrendNone     Trend = ""
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

// IndicatorSnapshot — предрассчитанные индикаторы от внешнего провайдера.
// Любое поле может отсутствовать (nil): это не ошибка, а "нет подтверждения".
type IndicatorSnapshot struct {
	MACD       []float64
	MACDSignal []float64
	RSI        []float64
	VWAP       *float64
	ATR        *float64
}

// MarketSnapshot — полный слепок рынка для одного прохода оценки.
type MarketSnapshot struct {
	Symbol    string
	ZoneBars  []Candle // зонный таймфрейм, от старых к новым
	EntryBars []Candle // входной таймфрейм
	Bid       float64
	Ask       float64
	Point     float64 // размер пункта инструмента
	// Минимальная дистанция SL/TP от брокера (в ценах). 0 — неизвестна,
	// движок возьмёт свой fallback.
	MinDistance float64
}
