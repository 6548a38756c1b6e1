package models

import "time"

// Side как в раннере: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// StrategyMode — режим движка: консервативный трендовый или агрессивный.
type StrategyMode string

const (
	ModeTrendFollow StrategyMode = "trend_follow"
	ModeAggressive  StrategyMode = "aggressive"
)

// TradeIntent — полностью рассчитанное торговое намерение.
// Создаётся один раз на квалифицированную оценку, владение уходит исполнителю.
type TradeIntent struct {
	Symbol    string
	Side      Side
	Entry     float64
	SL        float64
	TP        float64
	ZonePrice float64
	SizeHint  float64
	Strategy  StrategyMode
	Reason    string
}

// ActiveTradeSet — какие стороны уже в рынке. Владеет раннер,
// движок только читает снапшот на время одной оценки.
type ActiveTradeSet map[Side]bool

type DecisionAction string

const (
	DecisionFired   DecisionAction = "fired"
	DecisionSkipped DecisionAction = "skipped"
	DecisionFlipped DecisionAction = "flipped"
)

// Decision — запись аудита по каждой зоне: вошли, пропустили или флипнули.
type Decision struct {
	Time      time.Time
	Action    DecisionAction
	Reason    string
	ZoneKind  ZoneKind
	ZonePrice float64
	Mode      StrategyMode
	Trend     Trend
}
