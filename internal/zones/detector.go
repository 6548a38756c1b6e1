package zones

import (
	"math"

	"scalper_bot/internal/models"
	"scalper_bot/internal/pattern"
)

// Детектор зон спроса/предложения: строгие pivot-зоны по всему окну
// и быстрые зоны по последним свечам с ATR-адаптивной полосой.
//
// Конвенция сравнений: строгие `<`/`>` в обоих детекторах (pivot и
// кластер). Исходные эвристики были непоследовательны, здесь выбран
// один вариант.

const minFastWindow = 20

type DetectorConfig struct {
	ZoneSize     int     // крыло pivot: свечей до и после кандидата
	MinProximity float64 // нижняя граница полосы быстрых зон, в пунктах
	WickRatio    float64 // требование к тени последней свечи
	ClusterSize  int     // минимум свечей в полосе у экстремума
	RecentBars   int     // сколько последних свечей смотрим для кластера
	ATRWindow    int     // окно среднего хода цены
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ZoneSize:     5,
		MinProximity: 15000,
		WickRatio:    1.5,
		ClusterSize:  2,
		RecentBars:   5,
		ATRWindow:    14,
	}
}

// DetectStrict находит pivot-зоны: свеча — зона спроса, если её low
// строго ниже low всех zoneSize свечей до и после (симметрично для
// предложения по high). Краевые свечи кандидатами не бывают.
// Окна короче 2*zoneSize+1 дают пустой результат, не ошибку.
func DetectStrict(bars []models.Candle, zoneSize int) (demand, supply []models.Zone) {
	if zoneSize <= 0 || len(bars) < 2*zoneSize+1 {
		return nil, nil
	}

	for i := zoneSize; i < len(bars)-zoneSize; i++ {
		c := bars[i]
		pivotLow, pivotHigh := true, true
		for j := 1; j <= zoneSize; j++ {
			if bars[i-j].Low <= c.Low || bars[i+j].Low <= c.Low {
				pivotLow = false
			}
			if bars[i-j].High >= c.High || bars[i+j].High >= c.High {
				pivotHigh = false
			}
			if !pivotLow && !pivotHigh {
				break
			}
		}
		if pivotLow {
			demand = append(demand, models.Zone{
				Price:      c.Low,
				Kind:       models.ZoneDemand,
				Origin:     models.OriginStrict,
				Provenance: models.ProvenanceOriginal,
				CreatedAt:  c.Time,
			})
		}
		if pivotHigh {
			supply = append(supply, models.Zone{
				Price:      c.High,
				Kind:       models.ZoneSupply,
				Origin:     models.OriginStrict,
				Provenance: models.ProvenanceOriginal,
				CreatedAt:  c.Time,
			})
		}
	}
	return demand, supply
}

// DetectFast находит быстрые зоны по последним свечам:
//   - полоса = max(2 × средний ход за ATRWindow, MinProximity);
//   - минимум ClusterSize последних свечей в полосе экстремума;
//   - последняя свеча показывает отбой тенью на нужной стороне.
//
// На вызов выходит максимум одна быстрая зона спроса и одна предложения.
func DetectFast(bars []models.Candle, point float64, cfg DetectorConfig) (demand, supply []models.Zone) {
	if len(bars) < minFastWindow {
		return nil, nil
	}

	last := bars[len(bars)-1]
	recent := bars[len(bars)-cfg.RecentBars:]
	proximity := math.Max(2*avgCloseMove(bars, cfg.ATRWindow), cfg.MinProximity*point)

	demandHits, supplyHits := 0, 0
	for _, c := range recent {
		if c.Low < last.Low+proximity {
			demandHits++
		}
		if c.High > last.High-proximity {
			supplyHits++
		}
	}

	if demandHits >= cfg.ClusterSize && pattern.WickRejection(last, models.SideBuy, cfg.WickRatio) {
		demand = append(demand, models.Zone{
			Price:      last.Low,
			Kind:       models.ZoneDemand,
			Origin:     models.OriginFast,
			Provenance: models.ProvenanceOriginal,
			CreatedAt:  last.Time,
		})
	}
	if supplyHits >= cfg.ClusterSize && pattern.WickRejection(last, models.SideSell, cfg.WickRatio) {
		supply = append(supply, models.Zone{
			Price:      last.High,
			Kind:       models.ZoneSupply,
			Origin:     models.OriginFast,
			Provenance: models.ProvenanceOriginal,
			CreatedAt:  last.Time,
		})
	}
	return demand, supply
}

// avgCloseMove — средний абсолютный ход close за последние window свечей,
// дешёвый прокси ATR в пунктах цены.
func avgCloseMove(bars []models.Candle, window int) float64 {
	if window <= 0 || len(bars) < window+1 {
		return 0
	}
	var sum float64
	for i := len(bars) - window; i < len(bars); i++ {
		sum += math.Abs(bars[i].Close - bars[i-1].Close)
	}
	return sum / float64(window)
}

// ZonesEqual — сравнение списков зон для детекта "зоны поменялись"
// (уведомляем только на реальное изменение).
func ZonesEqual(a, b []models.Zone) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Price-b[i].Price) > 1e-5 || !a[i].CreatedAt.Equal(b[i].CreatedAt) {
			return false
		}
	}
	return true
}
