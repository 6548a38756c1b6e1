package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormTF(t *testing.T) {
	assert.Equal(t, "1h", NormTF("60m"))
	assert.Equal(t, "1h", NormTF("1H"))
	assert.Equal(t, "5m", NormTF("candle5m"))
	assert.Equal(t, "1m", NormTF(" 1m "))
	// незнакомый таймфрейм проходит как есть
	assert.Equal(t, "4h", NormTF("4h"))
}

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 100.25, RoundDownToTick(100.27, 0.25), 1e-9)
	assert.InDelta(t, 100.50, RoundUpToTick(100.27, 0.25), 1e-9)
	// уже на тике — не двигаем
	assert.InDelta(t, 100.25, RoundDownToTick(100.25, 0.25), 1e-9)
	assert.InDelta(t, 100.25, RoundUpToTick(100.25, 0.25), 1e-9)
	// нулевой тик — без округления
	assert.InDelta(t, 100.27, RoundDownToTick(100.27, 0), 1e-9)
}

func TestRoundSafe(t *testing.T) {
	assert.InDelta(t, 100.25, RoundSafe(100.27, 0.25, true), 1e-9)
	assert.InDelta(t, 100.50, RoundSafe(100.27, 0.25, false), 1e-9)
}
