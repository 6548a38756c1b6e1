package pattern

import (
	"scalper_bot/internal/models"
)

// Библиотека свечных паттернов. Все функции — чистые предикаты над
// закрытыми свечами, без состояния.

const (
	// PinBarRatio — во сколько раз тень должна превышать тело пин-бара.
	PinBarRatio = 2.0
	// MarubozuShadowRatio — допустимая тень марубозу относительно тела.
	MarubozuShadowRatio = 0.1
)

// BullishPinBar — длинная нижняя тень, маленькое бычье тело сверху.
func BullishPinBar(c models.Candle) bool {
	body := c.Body()
	return c.LowerWick() > body*PinBarRatio &&
		c.UpperWick() < body &&
		c.Bullish()
}

// BearishPinBar — длинная верхняя тень, маленькое медвежье тело снизу.
func BearishPinBar(c models.Candle) bool {
	body := c.Body()
	return c.UpperWick() > body*PinBarRatio &&
		c.LowerWick() < body &&
		c.Bearish()
}

// BullishEngulfing — строгое бычье поглощение: вторая свеча накрывает
// тело первой (открытие ниже закрытия, закрытие выше открытия).
func BullishEngulfing(prev, curr models.Candle) bool {
	return prev.Bearish() &&
		curr.Bullish() &&
		curr.Open < prev.Close &&
		curr.Close > prev.Open
}

// BearishEngulfing — строгое медвежье поглощение.
func BearishEngulfing(prev, curr models.Candle) bool {
	return prev.Bullish() &&
		curr.Bearish() &&
		curr.Open > prev.Close &&
		curr.Close < prev.Open
}

// ValidEngulfing — вариант поглощения с требованием роста тела:
// тело второй свечи больше тела первой. Нулевое тело первой — отказ.
func ValidEngulfing(prev, curr models.Candle, side models.Side) bool {
	if prev.Body() == 0 {
		return false
	}
	grew := curr.Body() > prev.Body()
	switch side {
	case models.SideBuy:
		return curr.Open < prev.Close && curr.Close > prev.Open && grew
	case models.SideSell:
		return curr.Open > prev.Close && curr.Close < prev.Open && grew
	}
	return false
}

// MorningStar — бычий трёхсвечный разворот: падение → нерешительность → рост.
func MorningStar(c1, c2, c3 models.Candle) bool {
	return c1.Bearish() &&
		c2.Bearish() && c2.Body() < c1.Body()*0.5 &&
		c3.Bullish() && c3.Close > (c1.Open+c1.Close)/2
}

// EveningStar — медвежий трёхсвечный разворот.
func EveningStar(c1, c2, c3 models.Candle) bool {
	return c1.Bullish() &&
		c2.Bullish() && c2.Body() < c1.Body()*0.5 &&
		c3.Bearish() && c3.Close < (c1.Open+c1.Close)/2
}

// BullishRectangle — узкая боковая консолидация после роста:
// весь диапазон окна меньше двух средних тел.
func BullishRectangle(win []models.Candle) bool {
	hi, lo, avgBody, ok := rangeStats(win)
	if !ok {
		return false
	}
	return hi-lo < avgBody*2 && win[0].Close > win[len(win)-1].Close
}

// BearishRectangle — то же после снижения.
func BearishRectangle(win []models.Candle) bool {
	hi, lo, avgBody, ok := rangeStats(win)
	if !ok {
		return false
	}
	return hi-lo < avgBody*2 && win[0].Close < win[len(win)-1].Close
}

// BullishMarubozu — бычье тело почти без теней.
func BullishMarubozu(c models.Candle) bool {
	return c.Bullish() &&
		c.UpperWick() < MarubozuShadowRatio*c.Body() &&
		c.LowerWick() < MarubozuShadowRatio*c.Body()
}

// BearishMarubozu — медвежье тело почти без теней.
func BearishMarubozu(c models.Candle) bool {
	return c.Bearish() &&
		c.UpperWick() < MarubozuShadowRatio*c.Body() &&
		c.LowerWick() < MarubozuShadowRatio*c.Body()
}

// InsideBar — текущая свеча целиком внутри диапазона предыдущей.
func InsideBar(prev, curr models.Candle) bool {
	return curr.High <= prev.High && curr.Low >= prev.Low
}

// WickRejection — тень на нужной стороне не меньше minRatio тел.
// Нулевое тело — отказ (деление на ноль не маскируем под сигнал).
func WickRejection(c models.Candle, side models.Side, minRatio float64) bool {
	body := c.Body()
	if body == 0 {
		return false
	}
	if side == models.SideBuy {
		return c.LowerWick()/body >= minRatio
	}
	return c.UpperWick()/body >= minRatio
}

func rangeStats(win []models.Candle) (hi, lo, avgBody float64, ok bool) {
	if len(win) == 0 {
		return 0, 0, 0, false
	}
	hi, lo = win[0].High, win[0].Low
	var bodies float64
	for _, c := range win {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
		bodies += c.Body()
	}
	return hi, lo, bodies / float64(len(win)), true
}
