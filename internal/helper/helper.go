package helper

import (
	"math"
	"strings"
)

func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "1h":
		return "1h"
	case "15m":
		return "15m"
	case "5m":
		return "5m"
	case "1m":
		return "1m"
	default:
		return s
	}
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// RoundSafe округляет SL/TP "в безопасную сторону": стоп дальше от цены,
// тейк ближе не становится.
func RoundSafe(px, tick float64, roundDown bool) float64 {
	if roundDown {
		return RoundDownToTick(px, tick)
	}
	return RoundUpToTick(px, tick)
}
