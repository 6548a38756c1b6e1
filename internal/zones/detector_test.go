package zones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper_bot/internal/models"
)

func bar(o, h, l, c float64, i int) models.Candle {
	return models.Candle{
		Open: o, High: h, Low: l, Close: c,
		Time: time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC),
	}
}

func TestDetectStrictPivots(t *testing.T) {
	// единственный строгий pivot low на индексе 2 (low 3) и pivot high там же (high 12)
	bars := []models.Candle{
		bar(5.5, 10, 5, 5.2, 0),
		bar(4.5, 11, 4, 4.2, 1),
		bar(3.5, 12, 3, 3.8, 2),
		bar(4.2, 11, 4, 4.5, 3),
		bar(5.2, 10, 5, 5.5, 4),
		bar(6.2, 9, 6, 6.5, 5),
		bar(7.2, 8, 7, 7.5, 6),
	}

	demand, supply := DetectStrict(bars, 2)
	require.Len(t, demand, 1)
	require.Len(t, supply, 1)

	assert.Equal(t, 3.0, demand[0].Price)
	assert.Equal(t, models.ZoneDemand, demand[0].Kind)
	assert.Equal(t, models.OriginStrict, demand[0].Origin)
	assert.Equal(t, bars[2].Time, demand[0].CreatedAt)

	assert.Equal(t, 12.0, supply[0].Price)
	assert.Equal(t, models.ZoneSupply, supply[0].Kind)
}

func TestDetectStrictTiesRejected(t *testing.T) {
	// равный low у соседа: строгое сравнение pivot не даёт
	bars := []models.Candle{
		bar(5.5, 10, 5, 5.2, 0),
		bar(3.5, 11, 3, 4.2, 1),
		bar(3.5, 9, 3, 3.8, 2),
		bar(4.2, 9, 4, 4.5, 3),
		bar(5.2, 8, 5, 5.5, 4),
	}
	demand, _ := DetectStrict(bars, 2)
	assert.Empty(t, demand)
}

func TestDetectStrictShortWindow(t *testing.T) {
	bars := []models.Candle{bar(1, 2, 0.5, 1.5, 0), bar(1, 2, 0.5, 1.5, 1)}
	demand, supply := DetectStrict(bars, 5)
	assert.Nil(t, demand)
	assert.Nil(t, supply)
}

func TestDetectFastDemandCluster(t *testing.T) {
	cfg := DetectorConfig{
		ZoneSize:     5,
		MinProximity: 100, // 100 пунктов × 0.01 = 1.0 цены
		WickRatio:    1.5,
		ClusterSize:  2,
		RecentBars:   5,
		ATRWindow:    14,
	}

	bars := make([]models.Candle, 0, 20)
	for i := 0; i < 19; i++ {
		bars = append(bars, bar(100.0, 100.3, 99.8, 100.1, i))
	}
	// последняя свеча: отбой нижней тенью (тень 0.5 при теле 0.1)
	bars = append(bars, bar(100.0, 100.12, 99.5, 100.1, 19))

	demand, supply := DetectFast(bars, 0.01, cfg)
	require.Len(t, demand, 1)
	assert.Equal(t, 99.5, demand[0].Price)
	assert.Equal(t, models.OriginFast, demand[0].Origin)
	// верхняя тень короткая — отбоя для предложения нет
	assert.Empty(t, supply)
}

func TestDetectFastShortWindow(t *testing.T) {
	bars := []models.Candle{bar(100, 101, 99, 100.5, 0)}
	demand, supply := DetectFast(bars, 0.01, DefaultDetectorConfig())
	assert.Nil(t, demand)
	assert.Nil(t, supply)
}

func TestZonesEqual(t *testing.T) {
	a := []models.Zone{{Price: 100, CreatedAt: time.Unix(1000, 0)}}
	b := []models.Zone{{Price: 100, CreatedAt: time.Unix(1000, 0)}}
	assert.True(t, ZonesEqual(a, b))

	b[0].Price = 100.1
	assert.False(t, ZonesEqual(a, b))
	assert.False(t, ZonesEqual(a, nil))
	assert.True(t, ZonesEqual(nil, nil))
}
