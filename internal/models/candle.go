package models

import (
	"math"
	"time"
)

// Candle — закрытая свеча входного или зонного таймфрейма.
// Неизменяема после получения; время строго растёт внутри окна.
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Time  time.Time
}

func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

func (c Candle) UpperWick() float64 { return c.High - math.Max(c.Close, c.Open) }

func (c Candle) LowerWick() float64 { return math.Min(c.Close, c.Open) - c.Low }

func (c Candle) Bullish() bool { return c.Close > c.Open }

func (c Candle) Bearish() bool { return c.Close < c.Open }
