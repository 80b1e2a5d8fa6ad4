package reminder

import "time"

// Timer es el handle de cancelación de un one-shot pendiente.
type Timer interface {
	// Stop devuelve false si el timer ya disparó o ya fue frenado.
	Stop() bool
}

// Ticker emite los ticks del loop de medianoche.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimerSource crea one-shots y tickers. En producción envuelve
// time.AfterFunc / time.NewTicker; en tests se inyecta una fuente
// manual para simular el paso del tiempo.
type TimerSource interface {
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

type realTimerSource struct{}

func (realTimerSource) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realTimerSource) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (rt realTicker) C() <-chan time.Time { return rt.t.C }
func (rt realTicker) Stop()               { rt.t.Stop() }

// RealTimerSource devuelve la fuente basada en time.AfterFunc.
func RealTimerSource() TimerSource { return realTimerSource{} }
