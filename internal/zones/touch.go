package zones

import (
	"time"
)

// TouchState — состояние касаний одного уровня. На уровень (цену зоны)
// существует максимум одно состояние; удаление — только через Reset.
type TouchState struct {
	Count          int
	LastTouchTime  time.Time
	WasOutsideZone bool
}

// Tracker — дебаунс касаний зон: "взвёл — сработал". Пока цена стоит
// внутри полосы, счётчик не растёт; новое касание возможно только после
// выхода наружу и не чаще одного раза в minGap.
//
// Tracker не потокобезопасен: владелец сериализует вызовы (одна оценка
// на закрытие свечи).
type Tracker struct {
	states map[float64]*TouchState
	minGap time.Duration
}

func NewTracker(minGap time.Duration) *Tracker {
	if minGap <= 0 {
		minGap = 30 * time.Second
	}
	return &Tracker{
		states: make(map[float64]*TouchState),
		minGap: minGap,
	}
}

// Update прокручивает состояние уровня на одну свечу и возвращает счётчик.
// Свежесозданное состояние взведено и с нулевым LastTouchTime, так что
// первое же попадание в полосу считается касанием №1.
func (t *Tracker) Update(zonePrice float64, barTime time.Time, inZone bool) int {
	st, ok := t.states[zonePrice]
	if !ok {
		st = &TouchState{WasOutsideZone: true}
		t.states[zonePrice] = st
	}

	if !inZone {
		st.WasOutsideZone = true
		return st.Count
	}

	if st.WasOutsideZone && barTime.Sub(st.LastTouchTime) >= t.minGap {
		st.Count++
		st.LastTouchTime = barTime
		st.WasOutsideZone = false
	}
	return st.Count
}

// Reset убирает состояние уровня целиком: следующий цикл начнётся
// с касания №1, а не с нуля в старом состоянии.
func (t *Tracker) Reset(zonePrice float64) {
	delete(t.states, zonePrice)
}

// State возвращает копию состояния уровня.
func (t *Tracker) State(zonePrice float64) (TouchState, bool) {
	st, ok := t.states[zonePrice]
	if !ok {
		return TouchState{}, false
	}
	return *st, true
}

func (t *Tracker) Len() int { return len(t.states) }
