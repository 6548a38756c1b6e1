package zones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerFirstTouchCounts(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// свежий уровень взведён: первое же попадание в полосу — касание №1
	assert.Equal(t, 1, tr.Update(100, t0, true))
}

func TestTrackerArmThenFire(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, tr.Update(100, t0, true))
	// стоим внутри полосы — счётчик не растёт
	assert.Equal(t, 1, tr.Update(100, t0.Add(time.Minute), true))

	// вышли наружу — взвелись
	assert.Equal(t, 1, tr.Update(100, t0.Add(2*time.Minute), false))
	// вернулись в полосу после minGap — касание №2
	assert.Equal(t, 2, tr.Update(100, t0.Add(3*time.Minute), true))
}

func TestTrackerMinGapDebounce(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, tr.Update(100, t0, true))
	assert.Equal(t, 1, tr.Update(100, t0.Add(5*time.Second), false))
	// взведены, но 10 секунд от последнего касания меньше minGap
	assert.Equal(t, 1, tr.Update(100, t0.Add(10*time.Second), true))
	// тот же заход, но уже после выдержки
	assert.Equal(t, 2, tr.Update(100, t0.Add(40*time.Second), true))
}

func TestTrackerResetStartsOver(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Update(100, t0, true)
	tr.Update(100, t0.Add(time.Minute), false)
	tr.Update(100, t0.Add(2*time.Minute), true)

	st, ok := tr.State(100)
	require.True(t, ok)
	assert.Equal(t, 2, st.Count)

	tr.Reset(100)
	_, ok = tr.State(100)
	assert.False(t, ok)

	// новый цикл начинается с касания №1, а не с хвоста старого состояния
	assert.Equal(t, 1, tr.Update(100, t0.Add(3*time.Minute), true))
}

func TestTrackerLevelsIndependent(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, tr.Update(100, t0, true))
	assert.Equal(t, 0, tr.Update(200, t0, false))
	assert.Equal(t, 2, tr.Len())
}
