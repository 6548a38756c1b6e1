package service

import (
	"sync/atomic"
	"time"
)

// State — операционный срез бота для health-эндпоинтов.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastBarUnix  atomic.Int64 // unix-секунды последней закрытой свечи
	lastEvalUnix atomic.Int64 // unix-секунды последнего прохода движка

	demandZones atomic.Int64
	supplyZones atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchBar(t time.Time)  { s.lastBarUnix.Store(t.Unix()) }
func (s *State) TouchEval(t time.Time) { s.lastEvalUnix.Store(t.Unix()) }

func (s *State) SetZones(demand, supply int) {
	s.demandZones.Store(int64(demand))
	s.supplyZones.Store(int64(supply))
}

func (s *State) LastBar() time.Time  { return fromUnix(s.lastBarUnix.Load()) }
func (s *State) LastEval() time.Time { return fromUnix(s.lastEvalUnix.Load()) }

func (s *State) Zones() (demand, supply int64) {
	return s.demandZones.Load(), s.supplyZones.Load()
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
