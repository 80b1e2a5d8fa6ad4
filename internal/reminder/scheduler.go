package reminder

import (
	"context"
	"sync"
	"time"

	"care-coordination/internal/domain/medicines"
	"care-coordination/internal/platform/logger"
)

const (
	// delays menores a un segundo se tratan como "ya pasó"
	minDelay = time.Second

	defaultPollEvery = time.Minute
	dispatchTimeout  = 30 * time.Second
)

// MedicineStore es la consulta que necesita el rebuild: medicamentos
// activos y no vencidos, con sus doses.
type MedicineStore interface {
	ListActiveAll(ctx context.Context, notEndedBefore time.Time) ([]medicines.Medicine, error)
}

// Scheduler mantiene un timer one-shot por (medicamento, toma). Todo es
// en memoria: un restart pierde los timers pendientes y se recupera con
// el rebuild de arranque o el de medianoche, lo que llegue primero. No
// hay capa de persistencia para timers y está bien así: el peor caso es
// un recordatorio perdido.
type Scheduler struct {
	store      MedicineStore
	dispatcher *Dispatcher
	registry   *Registry
	timers     TimerSource
	now        func() time.Time
	log        logger.Logger
	pollEvery  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

type Config struct {
	Store      MedicineStore
	Dispatcher *Dispatcher

	// Opcionales; con cero se usan los reales.
	Timers    TimerSource
	Now       func() time.Time
	Log       logger.Logger
	PollEvery time.Duration
}

func NewScheduler(cfg Config) *Scheduler {
	timers := cfg.Timers
	if timers == nil {
		timers = RealTimerSource()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop{}
	}
	pollEvery := cfg.PollEvery
	if pollEvery <= 0 {
		pollEvery = defaultPollEvery
	}

	return &Scheduler{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		registry:   NewRegistry(),
		timers:     timers,
		now:        now,
		log:        log,
		pollEvery:  pollEvery,
		stopCh:     make(chan struct{}),
	}
}

// Registry expone el registro para asserts en tests e introspección.
func (s *Scheduler) Registry() *Registry { return s.registry }

// Start hace el rebuild inicial y arranca el chequeo de medianoche
// (cada pollEvery; el rebuild corre cuando hora==0 y minuto==0).
func (s *Scheduler) Start(ctx context.Context) {
	if err := s.Rebuild(ctx); err != nil {
		s.log.Error("initial reminder rebuild failed", map[string]any{"error": err.Error()})
	}

	go s.pollLoop()
	s.log.Info("medicine reminder scheduler started", map[string]any{"pending": s.registry.Len()})
}

// Stop frena el loop de medianoche y cancela todos los timers.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.registry.CancelAll()
	})
}

func (s *Scheduler) pollLoop() {
	ticker := s.timers.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C():
			now := s.now()
			if now.Hour() == 0 && now.Minute() == 0 {
				s.rebuildSafe()
			}
		}
	}
}

// rebuildSafe no deja que un error (o un panic de un collaborator) mate
// el loop: lo peor aceptable es un ciclo de rebuild perdido.
func (s *Scheduler) rebuildSafe() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder rebuild panicked", map[string]any{"panic": r})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := s.Rebuild(ctx); err != nil {
		s.log.Error("midnight reminder rebuild failed", map[string]any{"error": err.Error()})
	}
}

// Rebuild cancela todo y rederiva el schedule completo desde los
// medicamentos activos. Es el único mecanismo de recuperación.
func (s *Scheduler) Rebuild(ctx context.Context) error {
	cancelled := s.registry.CancelAll()

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	meds, err := s.store.ListActiveAll(ctx, today)
	if err != nil {
		return err
	}

	for _, m := range meds {
		s.ScheduleMedicine(ctx, m)
	}

	s.log.Info("reminder schedule rebuilt", map[string]any{
		"cancelled": cancelled,
		"medicines": len(meds),
		"pending":   s.registry.Len(),
	})
	return nil
}

// ScheduleMedicine instala un timer por toma del medicamento. Medicamentos
// que arrancan en el futuro o ya terminaron no generan timers.
func (s *Scheduler) ScheduleMedicine(ctx context.Context, m medicines.Medicine) {
	if !m.Active {
		return
	}

	now := s.now()
	if m.StartDate != nil && m.StartDate.After(now) {
		s.log.Debug("medicine starts in the future, skipping", map[string]any{"medicine": m.Name})
		return
	}
	if m.EndDate != nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if m.EndDate.Before(today) {
			s.log.Debug("medicine already ended, skipping", map[string]any{"medicine": m.Name})
			return
		}
	}

	for _, dose := range m.Doses {
		s.scheduleDose(m, dose, now)
	}
}

// CancelMedicine tira todos los timers del medicamento (delete/update).
func (s *Scheduler) CancelMedicine(medicineID string) {
	if n := s.registry.CancelMedicine(medicineID); n > 0 {
		s.log.Debug("cancelled reminder timers", map[string]any{
			"medicine_id": medicineID,
			"count":       n,
		})
	}
}

func (s *Scheduler) scheduleDose(m medicines.Medicine, dose medicines.Dose, now time.Time) {
	next, err := NextOccurrence(now, dose.Time)
	if err != nil {
		s.log.Warn("invalid dose time, skipping", map[string]any{
			"medicine": m.Name,
			"time":     dose.Time,
			"error":    err.Error(),
		})
		return
	}

	// Las tomas semanales corren al próximo día habilitado. El calendario
	// siempre filtró por daysOfWeek; acá se respeta el mismo filtro.
	if dose.Frequency == medicines.FrequencyWeekly {
		next, err = NextOnAllowedDays(next, dose.DaysOfWeek)
		if err != nil {
			s.log.Warn("weekly dose without weekdays, skipping", map[string]any{
				"medicine": m.Name,
				"time":     dose.Time,
			})
			return
		}
	}

	delay := next.Sub(now)
	if delay < minDelay {
		s.log.Warn("dose time already passed, skipping", map[string]any{
			"medicine": m.Name,
			"time":     dose.Time,
			"delay":    delay.String(),
		})
		return
	}

	med, d := m, dose // copias para el closure
	s.registry.Schedule(s.timers, m.ID, dose.Time, delay, next, func() {
		s.fire(med, d)
	})

	s.log.Debug("dose reminder scheduled", map[string]any{
		"medicine": m.Name,
		"time":     dose.Time,
		"next":     next.Format(time.RFC3339),
	})
}

// fire corre en el goroutine del timer; nada de acá puede voltear el
// proceso.
func (s *Scheduler) fire(m medicines.Medicine, dose medicines.Dose) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder dispatch panicked", map[string]any{"panic": r})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := s.dispatcher.Dispatch(ctx, m, dose); err != nil {
		s.log.Error("reminder dispatch failed", map[string]any{
			"medicine": m.Name,
			"time":     dose.Time,
			"error":    err.Error(),
		})
	}
}
