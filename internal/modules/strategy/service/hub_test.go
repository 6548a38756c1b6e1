package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scalper_bot/internal/models"
	appcfg "scalper_bot/internal/modules/config"
)

func testHub() *Hub {
	cfg := &appcfg.Config{}
	cfg.Strategy.ZoneTF = "1h"
	cfg.Strategy.TF = "1m"
	cfg.Strategy.FastTF = "5m"
	cfg.Strategy.ZoneLookback = 100
	return &Hub{
		cfg:  cfg,
		bars: make(map[string][]models.Candle),
	}
}

func barAt(c float64, minute int) models.Candle {
	return models.Candle{
		Open: c, High: c + 0.1, Low: c - 0.1, Close: c,
		Time: time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC),
	}
}

func TestAppendBarDedupesByTime(t *testing.T) {
	h := testHub()

	assert.True(t, h.appendBar("1m", barAt(100, 0)))
	assert.True(t, h.appendBar("1m", barAt(101, 1)))
	// повтор того же времени и свеча из прошлого — no-op
	assert.False(t, h.appendBar("1m", barAt(102, 1)))
	assert.False(t, h.appendBar("1m", barAt(103, 0)))

	assert.Len(t, h.bars["1m"], 2)
	assert.Equal(t, 101.0, h.bars["1m"][1].Close)
}

func TestAppendBarTrimsBuffer(t *testing.T) {
	h := testHub()
	for i := 0; i < maxEntryBars+50; i++ {
		h.appendBar("1m", models.Candle{
			Close: float64(i),
			Time:  time.Date(2025, 6, 1, 0, 0, i, 0, time.UTC),
		})
	}
	assert.Len(t, h.bars["1m"], maxEntryBars)
	// остаются самые свежие
	last := h.bars["1m"][len(h.bars["1m"])-1]
	assert.Equal(t, float64(maxEntryBars+49), last.Close)
}

func TestSMATrend(t *testing.T) {
	// мало истории
	assert.Equal(t, models.TrendNone, smaTrend([]models.Candle{barAt(100, 0)}, 50))

	up := make([]models.Candle, 0, 60)
	for i := 0; i < 60; i++ {
		up = append(up, barAt(100+float64(i)*0.1, i))
	}
	assert.Equal(t, models.TrendUp, smaTrend(up, 50))

	down := make([]models.Candle, 0, 60)
	for i := 0; i < 60; i++ {
		down = append(down, barAt(100-float64(i)*0.1, i))
	}
	assert.Equal(t, models.TrendDown, smaTrend(down, 50))
}

func TestApplyFlipsMovesZone(t *testing.T) {
	h := testHub()
	h.demand = []models.Zone{{Price: 100, Kind: models.ZoneDemand}}

	h.applyFlips([]models.Zone{{Price: 100, Kind: models.ZoneSupply, Provenance: models.ProvenanceFlipped}})

	assert.Empty(t, h.demand)
	assert.Empty(t, h.mergedZones(models.ZoneDemand))

	supply := h.mergedZones(models.ZoneSupply)
	assert.Len(t, supply, 1)
	assert.Equal(t, models.ProvenanceFlipped, supply[0].Provenance)
}
