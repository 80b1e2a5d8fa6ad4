package reminder

import (
	"sync"
	"time"
)

type timerKey struct {
	medicineID string
	doseTime   string
}

type timerEntry struct {
	seq   uint64
	timer Timer
	fires time.Time
}

// Registry mantiene a lo sumo un one-shot vivo por (medicineID, doseTime).
// Es el único estado mutable compartido del subsistema; el mutex alcanza
// porque las operaciones no bloquean adentro.
type Registry struct {
	mu      sync.Mutex
	seq     uint64
	pending map[timerKey]timerEntry
}

func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[timerKey]timerEntry),
	}
}

// Schedule instala un timer para la key, cancelando antes el anterior si
// lo había. Cuando dispara, la entrada se remueve sola antes de invocar
// fire; un disparo fallido no re-arma nada.
func (r *Registry) Schedule(src TimerSource, medicineID, doseTime string, delay time.Duration, fires time.Time, fire func()) {
	key := timerKey{medicineID: medicineID, doseTime: doseTime}

	r.mu.Lock()
	if prev, ok := r.pending[key]; ok {
		prev.timer.Stop()
		delete(r.pending, key)
	}

	r.seq++
	seq := r.seq

	timer := src.AfterFunc(delay, func() {
		r.removeIfCurrent(key, seq)
		fire()
	})

	r.pending[key] = timerEntry{seq: seq, timer: timer, fires: fires}
	r.mu.Unlock()
}

// removeIfCurrent borra la entrada solo si sigue siendo la del timer que
// disparó: un Schedule concurrente ya pudo haberla reemplazado.
func (r *Registry) removeIfCurrent(key timerKey, seq uint64) {
	r.mu.Lock()
	if cur, ok := r.pending[key]; ok && cur.seq == seq {
		delete(r.pending, key)
	}
	r.mu.Unlock()
}

// CancelMedicine frena todos los timers de un medicamento (delete o
// update). Devuelve cuántos canceló.
func (r *Registry) CancelMedicine(medicineID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, entry := range r.pending {
		if key.medicineID != medicineID {
			continue
		}
		entry.timer.Stop()
		delete(r.pending, key)
		n++
	}
	return n
}

// CancelAll frena todo. Lo usa el rebuild global antes de recalcular.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.pending)
	for key, entry := range r.pending {
		entry.timer.Stop()
		delete(r.pending, key)
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Pending devuelve el instante de disparo del timer de la key, si existe.
func (r *Registry) Pending(medicineID, doseTime string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.pending[timerKey{medicineID: medicineID, doseTime: doseTime}]
	if !ok {
		return time.Time{}, false
	}
	return entry.fires, true
}
