package reminder

import (
	"sync"
	"testing"
	"time"
)

// fuente de timers manual: nada dispara solo, los tests llaman fire().
type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
}

type fakeTimerSource struct {
	mu     sync.Mutex
	timers []*fakeTimer

	// ticks alimenta los tickers creados por la fuente; los tests
	// mandan un valor por cada tick que quieren simular.
	ticks chan time.Time
}

func (s *fakeTimerSource) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{f: f, delay: d}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *fakeTimerSource) NewTicker(d time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticks == nil {
		s.ticks = make(chan time.Time)
	}
	return &fakeTicker{ch: s.ticks}
}

type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// live cuenta timers armados que ni dispararon ni fueron frenados.
func (s *fakeTimerSource) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

func TestRegistry_Schedule_ReplacesSameKey(t *testing.T) {
	src := &fakeTimerSource{}
	reg := NewRegistry()
	fires := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	reg.Schedule(src, "med-1", "08:00", time.Hour, fires, func() {})
	reg.Schedule(src, "med-1", "08:00", time.Hour, fires, func() {})

	if reg.Len() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", reg.Len())
	}
	if src.live() != 1 {
		t.Fatalf("expected old timer stopped, %d live", src.live())
	}
}

func TestRegistry_CancelMedicine_OnlyThatMedicine(t *testing.T) {
	src := &fakeTimerSource{}
	reg := NewRegistry()
	fires := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	reg.Schedule(src, "med-1", "08:00", time.Hour, fires, func() {})
	reg.Schedule(src, "med-1", "20:00", time.Hour, fires, func() {})
	reg.Schedule(src, "med-2", "08:00", time.Hour, fires, func() {})

	if n := reg.CancelMedicine("med-1"); n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", reg.Len())
	}
	if _, ok := reg.Pending("med-2", "08:00"); !ok {
		t.Fatalf("expected med-2 timer untouched")
	}
}

func TestRegistry_CancelAll(t *testing.T) {
	src := &fakeTimerSource{}
	reg := NewRegistry()
	fires := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	reg.Schedule(src, "med-1", "08:00", time.Hour, fires, func() {})
	reg.Schedule(src, "med-2", "09:00", time.Hour, fires, func() {})

	if n := reg.CancelAll(); n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	if reg.Len() != 0 || src.live() != 0 {
		t.Fatalf("expected empty registry and no live timers")
	}
}

func TestRegistry_FiredTimer_RemovesItself(t *testing.T) {
	src := &fakeTimerSource{}
	reg := NewRegistry()
	fires := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	fired := false
	reg.Schedule(src, "med-1", "08:00", time.Hour, fires, func() { fired = true })

	src.timers[0].fire()

	if !fired {
		t.Fatalf("expected fire callback to run")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected fired timer removed from registry, got %d", reg.Len())
	}
}
