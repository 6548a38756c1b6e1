package filters

import (
	"scalper_bot/internal/models"
)

// Индикаторные фильтры. Все проверки длин явные: короткий ряд или
// отсутствующий индикатор — это "нет подтверждения", а не ошибка.

const (
	rsiOversold   = 30
	rsiOverbought = 70
)

// MACDConfirms — пересечение MACD с сигнальной линией на последних двух точках.
func MACDConfirms(side models.Side, macd, signal []float64) bool {
	if len(macd) < 2 || len(signal) < 2 {
		return false
	}
	m2, m1 := macd[len(macd)-2], macd[len(macd)-1]
	s2, s1 := signal[len(signal)-2], signal[len(signal)-1]
	switch side {
	case models.SideBuy:
		return m2 < s2 && m1 > s1
	case models.SideSell:
		return m2 > s2 && m1 < s1
	}
	return false
}

// RSIConfirms — для покупки: перепроданность или разворот вверх,
// для продажи: перекупленность или разворот вниз.
func RSIConfirms(side models.Side, rsi []float64) bool {
	if len(rsi) < 2 {
		return false
	}
	prev, last := rsi[len(rsi)-2], rsi[len(rsi)-1]
	switch side {
	case models.SideBuy:
		return last < rsiOversold || prev < last
	case models.SideSell:
		return last > rsiOverbought || prev > last
	}
	return false
}

// VWAPConfirms — цена по нужную сторону от VWAP.
func VWAPConfirms(side models.Side, price float64, vwap *float64) bool {
	if vwap == nil || price == 0 {
		return false
	}
	switch side {
	case models.SideBuy:
		return price > *vwap
	case models.SideSell:
		return price < *vwap
	}
	return false
}

// Score — сколько из трёх индикаторов согласны со стороной (0..3).
func Score(side models.Side, ind models.IndicatorSnapshot, price float64) int {
	score := 0
	if MACDConfirms(side, ind.MACD, ind.MACDSignal) {
		score++
	}
	if RSIConfirms(side, ind.RSI) {
		score++
	}
	if VWAPConfirms(side, price, ind.VWAP) {
		score++
	}
	return score
}

// AllConfirm — все три индикатора одновременно (для разворотов на фейковом пробое).
func AllConfirm(side models.Side, ind models.IndicatorSnapshot, price float64) bool {
	return MACDConfirms(side, ind.MACD, ind.MACDSignal) &&
		RSIConfirms(side, ind.RSI) &&
		VWAPConfirms(side, price, ind.VWAP)
}

// Present — есть ли вообще данные по всем трём индикаторам.
func Present(ind models.IndicatorSnapshot) bool {
	return ind.MACD != nil && ind.MACDSignal != nil && ind.RSI != nil && ind.VWAP != nil
}
