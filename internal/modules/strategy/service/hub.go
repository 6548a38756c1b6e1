package service

import (
	"context"
	"log"
	"time"

	"scalper_bot/internal/config"
	"scalper_bot/internal/engine"
	"scalper_bot/internal/helper"
	"scalper_bot/internal/models"
	appcfg "scalper_bot/internal/modules/config"
	healthsvc "scalper_bot/internal/modules/health/service"
	mkt "scalper_bot/internal/modules/marketdata/service"
	"scalper_bot/internal/zones"
	"scalper_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

const (
	trendSMAPeriod = 50
	maxEntryBars   = 300
)

type ServiceNotifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
	Decision(d models.Decision)
}

// DecisionStore — аудит решений (обычно журнал в Postgres).
type DecisionStore interface {
	SaveDecision(ctx context.Context, d models.Decision) error
}

// ActiveTrades — слепок занятых сторон от раннера.
type ActiveTrades interface {
	Snapshot() models.ActiveTradeSet
}

// Hub сериализует оценки: копит бары по таймфреймам, пересканирует зоны
// на закрытии зонной свечи и гоняет движок на каждой закрытой входной
// свече. Конкурентных проходов нет, весь стейт живёт в одной горутине.
type Hub struct {
	cfg    *appcfg.Config
	params config.EngineParams
	market *mkt.Client
	n      ServiceNotifier
	store  DecisionStore
	active ActiveTrades
	out    chan<- models.TradeIntent
	health *healthsvc.State

	tracker *zones.Tracker
	eng     *engine.Engine
	detCfg  zones.DetectorConfig

	point       float64
	minDistance float64

	bars map[string][]models.Candle // ключ — нормализованный ТФ

	demand  []models.Zone // strict + fast, зонный ТФ
	supply  []models.Zone
	flipped []models.Zone // живут до следующего пересканирования

	lastEval time.Time
}

func NewHub(
	cfg *appcfg.Config,
	params config.EngineParams,
	market *mkt.Client,
	n ServiceNotifier,
	store DecisionStore,
	active ActiveTrades,
	out chan<- models.TradeIntent,
	health *healthsvc.State,
) *Hub {
	return &Hub{
		cfg:     cfg,
		params:  params,
		market:  market,
		n:       n,
		store:   store,
		active:  active,
		out:     out,
		health:  health,
		tracker: zones.NewTracker(params.TouchGap),
		detCfg: zones.DetectorConfig{
			ZoneSize:     params.ZoneSize,
			MinProximity: params.MinProximity,
			WickRatio:    params.WickRatio,
			ClusterSize:  params.ClusterSize,
			RecentBars:   params.RecentBars,
			ATRWindow:    params.ATRWindow,
		},
		bars: make(map[string][]models.Candle),
	}
}

// OnTick — закрытая свеча одного из трёх таймфреймов.
func (h *Hub) OnTick(ctx context.Context, t mkt.OutTick) {
	tf := helper.NormTF(t.Timeframe)
	if !h.appendBar(tf, t.Candle) {
		return
	}

	switch tf {
	case helper.NormTF(h.cfg.Strategy.ZoneTF):
		h.redetectZones(ctx)
	case helper.NormTF(h.cfg.Strategy.TF):
		h.evaluate(ctx, t.Candle)
	}
}

// Warmup подтягивает историю по HTTP, чтобы не ждать живых свечей
// пятьдесят периодов.
func (h *Hub) Warmup(ctx context.Context) error {
	s := h.cfg.Strategy
	for _, tf := range []struct {
		name string
		n    int
	}{
		{s.ZoneTF, s.ZoneLookback},
		{s.TF, maxEntryBars},
		{s.FastTF, trendSMAPeriod + 1},
	} {
		bars, err := h.market.GetBars(ctx, s.Symbol, tf.name, tf.n)
		if err != nil {
			return err
		}
		h.bars[helper.NormTF(tf.name)] = bars
	}
	h.redetectZones(ctx)
	return nil
}

func (h *Hub) appendBar(tf string, c models.Candle) bool {
	buf := h.bars[tf]
	// дубликат или свеча из прошлого — no-op
	if len(buf) > 0 && !c.Time.After(buf[len(buf)-1].Time) {
		return false
	}
	buf = append(buf, c)
	limit := maxEntryBars
	if tf == helper.NormTF(h.cfg.Strategy.ZoneTF) && h.cfg.Strategy.ZoneLookback > limit {
		limit = h.cfg.Strategy.ZoneLookback
	}
	if len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	h.bars[tf] = buf
	return true
}

// redetectZones пересчитывает strict и fast зоны по зонному таймфрейму.
// Уведомляем только при реальном изменении набора. Флипы прошлого цикла
// при пересканировании сгорают: свежий набор зон главнее.
func (h *Hub) redetectZones(ctx context.Context) {
	zoneBars := h.bars[helper.NormTF(h.cfg.Strategy.ZoneTF)]
	if len(zoneBars) == 0 {
		return
	}

	demand, supply := zones.DetectStrict(zoneBars, h.detCfg.ZoneSize)
	fastDemand, fastSupply := zones.DetectFast(zoneBars, h.pointOrDefault(ctx), h.detCfg)

	newDemand := append(append([]models.Zone{}, demand...), fastDemand...)
	newSupply := append(append([]models.Zone{}, supply...), fastSupply...)

	changed := !zones.ZonesEqual(newDemand, h.demand) || !zones.ZonesEqual(newSupply, h.supply)
	h.demand, h.supply = newDemand, newSupply
	h.flipped = nil
	h.health.SetZones(len(newDemand), len(newSupply))
	h.health.SetReady(true)

	if changed {
		h.n.Sendf("📊 Зоны обновлены. Strict: D=%d S=%d | Fast: D=%d S=%d",
			len(demand), len(supply), len(fastDemand), len(fastSupply))
	}
}

func (h *Hub) evaluate(ctx context.Context, bar models.Candle) {
	if bar.Time.Equal(h.lastEval) {
		return
	}

	entryBars := h.bars[helper.NormTF(h.cfg.Strategy.TF)]
	zoneBars := h.bars[helper.NormTF(h.cfg.Strategy.ZoneTF)]
	if len(entryBars) < 3 || len(zoneBars) == 0 {
		return
	}
	if len(h.demand) == 0 && len(h.supply) == 0 && len(h.flipped) == 0 {
		return
	}

	trend := smaTrend(zoneBars, trendSMAPeriod)
	if trend == models.TrendNone {
		log.Printf("[HUB] мало истории зонного ТФ для тренда, пропуск цикла")
		return
	}
	fastTrend := smaTrend(h.bars[helper.NormTF(h.cfg.Strategy.FastTF)], trendSMAPeriod)

	bid, ask, err := h.market.GetTick(ctx, h.cfg.Strategy.Symbol)
	if err != nil {
		// провайдер недоступен: цикл пропускаем целиком, стейт не трогаем
		logger.Error("tick unavailable: %v", err)
		return
	}

	h.ensureEngine(ctx)

	// индикаторы опциональны: ошибка — пустой слепок, не-подтверждение
	ind, err := h.market.GetIndicators(ctx, h.cfg.Strategy.Symbol, h.cfg.Strategy.TF)
	if err != nil {
		ind = models.IndicatorSnapshot{}
	}

	snap := models.MarketSnapshot{
		Symbol:      h.cfg.Strategy.Symbol,
		ZoneBars:    zoneBars,
		EntryBars:   entryBars,
		Bid:         bid,
		Ask:         ask,
		Point:       h.point,
		MinDistance: h.minDistance,
	}

	span, spanCtx := opentracing.StartSpanFromContext(ctx, "engine.evaluate")
	defer span.Finish()

	in := engine.Input{
		Mode:        models.StrategyMode(h.cfg.Strategy.Mode),
		Price:       snap.Bid,
		Trend:       trend,
		FastTrend:   fastTrend,
		Demand:      h.mergedZones(models.ZoneDemand),
		Supply:      h.mergedZones(models.ZoneSupply),
		Window:      snap.EntryBars,
		Active:      h.active.Snapshot(),
		Indicators:  ind,
		MinDistance: snap.MinDistance,
	}

	res, err := h.eng.Evaluate(in)
	if err != nil {
		log.Printf("[HUB] evaluate skipped: %v", err)
		return
	}
	h.lastEval = bar.Time
	h.health.TouchEval(bar.Time)

	for _, d := range res.Decisions {
		h.n.Decision(d)
		if h.store != nil {
			if err := h.store.SaveDecision(spanCtx, d); err != nil {
				logger.Error("journal decision: %v", err)
			}
		}
	}

	h.applyFlips(res.Flipped)

	for _, intent := range res.Intents {
		// округление к тику "в безопасную сторону": стоп дальше, тейк не ближе
		intent.SL = helper.RoundSafe(intent.SL, h.point, intent.Side == models.SideBuy)
		intent.TP = helper.RoundSafe(intent.TP, h.point, intent.Side == models.SideSell)
		select {
		case h.out <- intent:
		default:
			h.n.Sendf("⚠️ очередь сигналов полна, дропаем %s %s @ %.2f",
				intent.Symbol, intent.Side, intent.Entry)
		}
	}
}

// applyFlips убирает исходный уровень из своего списка и кладёт
// флипнутую зону в противоположный.
func (h *Hub) applyFlips(flipped []models.Zone) {
	for _, fz := range flipped {
		h.demand = removeZoneAt(h.demand, fz.Price)
		h.supply = removeZoneAt(h.supply, fz.Price)
		h.flipped = append(h.flipped, fz)
	}
}

func (h *Hub) mergedZones(kind models.ZoneKind) []models.Zone {
	base := h.demand
	if kind == models.ZoneSupply {
		base = h.supply
	}
	out := append([]models.Zone{}, base...)
	for _, z := range h.flipped {
		if z.Kind == kind {
			out = append(out, z)
		}
	}
	return out
}

func removeZoneAt(zs []models.Zone, price float64) []models.Zone {
	out := zs[:0]
	for _, z := range zs {
		if z.Price != price {
			out = append(out, z)
		}
	}
	return out
}

// ensureEngine строит движок, как только известны метаданные
// инструмента. Если мост молчит, живём на дефолтном пункте.
func (h *Hub) ensureEngine(ctx context.Context) {
	if h.eng != nil {
		return
	}
	point, minDist, err := h.market.GetSymbolMeta(ctx, h.cfg.Strategy.Symbol)
	if err != nil || point <= 0 {
		logger.Error("symbol meta unavailable, using defaults: %v", err)
		point, minDist = 0.01, 0
	}
	h.point = point
	h.minDistance = minDist

	h.eng = engine.New(engine.Params{
		Symbol:         h.cfg.Strategy.Symbol,
		Point:          point,
		SLBufferPts:    h.params.SLBuffer,
		TPRatio:        h.params.TPRatio,
		CheckRangePts:  h.params.CheckRange,
		FallbackMinPts: h.params.FallbackMin,
		BreakoutMin:    h.params.BreakoutMin,
		LotSize:        h.params.LotSize,
		ATRMultFast:    h.params.ATRMultFast,
		ATRMultStrict:  h.params.ATRMultStrict,
		BaseThreshold:  h.params.BaseThreshold,
		WickRatio:      h.params.WickRatio,
	}, h.tracker)
}

func (h *Hub) pointOrDefault(ctx context.Context) float64 {
	if h.point > 0 {
		return h.point
	}
	h.ensureEngine(ctx)
	return h.point
}

// smaTrend — close против SMA(period) зонного таймфрейма.
func smaTrend(bars []models.Candle, period int) models.Trend {
	if len(bars) < period+1 {
		return models.TrendNone
	}
	var sum float64
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	sma := sum / float64(period)
	last := bars[len(bars)-1].Close
	switch {
	case last > sma:
		return models.TrendUp
	case last < sma:
		return models.TrendDown
	}
	return models.TrendSideways
}
