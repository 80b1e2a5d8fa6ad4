package medicines

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyMarked = errors.New("dose already marked as taken")
	ErrNotMarked     = errors.New("dose not marked as taken")
)

const dateLayout = "2006-01-02"

// Rescheduler recibe los cambios de medicamentos para mantener los
// timers de recordatorio al día. Implementado por el scheduler; nil en
// tests que no lo necesitan.
type Rescheduler interface {
	ScheduleMedicine(ctx context.Context, m Medicine)
	CancelMedicine(medicineID string)
}

type Service struct {
	repo  Repository
	sched Rescheduler
	now   func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// SetRescheduler engancha el scheduler después de construir ambos
// (scheduler y service se necesitan mutuamente en el wiring del router).
func (s *Service) SetRescheduler(r Rescheduler) { s.sched = r }

type DoseInput struct {
	Time        string
	Instruction string
	Frequency   Frequency
	DaysOfWeek  []int
}

type AddInput struct {
	Name      string
	Dosage    string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     string
	Doses     []DoseInput
}

func (s *Service) Add(ctx context.Context, userID string, in AddInput) (Medicine, error) {
	userID = strings.TrimSpace(userID)
	name := strings.TrimSpace(in.Name)
	dosage := strings.TrimSpace(in.Dosage)

	if userID == "" || name == "" || dosage == "" {
		return Medicine{}, ErrInvalidInput
	}

	doses, err := buildDoses(in.Doses)
	if err != nil {
		return Medicine{}, err
	}

	now := s.now()
	m := Medicine{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Dosage:    dosage,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Notes:     strings.TrimSpace(in.Notes),
		Active:    true,
		Doses:     doses,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medicine{}, err
	}

	if s.sched != nil {
		s.sched.ScheduleMedicine(ctx, m)
	}
	return m, nil
}

type UpdateInput struct {
	Name      *string
	Dosage    *string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
	// Doses nil => no tocar; no-nil => reemplazo completo del set.
	Doses []DoseInput
}

func (s *Service) Update(ctx context.Context, userID, medicineID string, in UpdateInput) (Medicine, error) {
	m, err := s.getOwned(ctx, userID, medicineID)
	if err != nil {
		return Medicine{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Medicine{}, ErrInvalidInput
		}
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Dosage != nil {
		if strings.TrimSpace(*in.Dosage) == "" {
			return Medicine{}, ErrInvalidInput
		}
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.StartDate != nil {
		m.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		m.EndDate = in.EndDate
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Doses != nil {
		doses, err := buildDoses(in.Doses)
		if err != nil {
			return Medicine{}, err
		}
		m.Doses = doses
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}

	// re-schedule dirigido: solo los timers de este medicamento
	if s.sched != nil {
		s.sched.CancelMedicine(m.ID)
		s.sched.ScheduleMedicine(ctx, m)
	}
	return m, nil
}

// SoftDelete desactiva el medicamento y cancela sus recordatorios.
func (s *Service) SoftDelete(ctx context.Context, userID, medicineID string) error {
	m, err := s.getOwned(ctx, userID, medicineID)
	if err != nil {
		return err
	}

	m.Active = false
	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}

	if s.sched != nil {
		s.sched.CancelMedicine(m.ID)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID, medicineID string) (Medicine, error) {
	return s.getOwned(ctx, userID, medicineID)
}

func (s *Service) ListActive(ctx context.Context, userID string) ([]Medicine, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByUser(ctx, userID)
}

// MarkTaken registra la ocurrencia (date, tod) como tomada. El chequeo de
// duplicado es una existencia previa, no un unique de storage: alcanza
// porque solo el dueño escribe su propio log.
func (s *Service) MarkTaken(ctx context.Context, userID, medicineID, date, tod string) error {
	date = strings.TrimSpace(date)
	tod = strings.TrimSpace(tod)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ErrInvalidInput
	}
	if tod == "" {
		return ErrInvalidInput
	}

	m, err := s.getOwned(ctx, userID, medicineID)
	if err != nil {
		return err
	}

	for _, rec := range m.Taken {
		if rec.Date == date && rec.Time == tod {
			return ErrAlreadyMarked
		}
	}

	return s.repo.AppendTaken(ctx, m.ID, TakenRecord{
		Date:     date,
		Time:     tod,
		MarkedAt: s.now(),
	})
}

func (s *Service) UnmarkTaken(ctx context.Context, userID, medicineID, date, tod string) error {
	date = strings.TrimSpace(date)
	tod = strings.TrimSpace(tod)
	if date == "" || tod == "" {
		return ErrInvalidInput
	}

	m, err := s.getOwned(ctx, userID, medicineID)
	if err != nil {
		return err
	}

	for _, rec := range m.Taken {
		if rec.Date == date && rec.Time == tod {
			return s.repo.RemoveTaken(ctx, m.ID, date, tod)
		}
	}
	return ErrNotMarked
}

func (s *Service) getOwned(ctx context.Context, userID, medicineID string) (Medicine, error) {
	userID = strings.TrimSpace(userID)
	medicineID = strings.TrimSpace(medicineID)
	if userID == "" || medicineID == "" {
		return Medicine{}, ErrInvalidInput
	}

	m, err := s.repo.GetByID(ctx, medicineID)
	if err != nil {
		return Medicine{}, ErrNotFound
	}
	if m.UserID != userID {
		return Medicine{}, ErrForbidden
	}
	return m, nil
}

func buildDoses(in []DoseInput) ([]Dose, error) {
	doses := make([]Dose, 0, len(in))
	for _, d := range in {
		tod := strings.TrimSpace(d.Time)
		if tod == "" {
			return nil, ErrInvalidInput
		}

		freq := d.Frequency
		if freq == "" {
			freq = FrequencyDaily
		}
		if freq != FrequencyDaily && freq != FrequencyWeekly {
			return nil, ErrInvalidInput
		}

		for _, wd := range d.DaysOfWeek {
			if wd < 0 || wd > 6 {
				return nil, ErrInvalidInput
			}
		}

		doses = append(doses, Dose{
			ID:          uuid.NewString(),
			Time:        tod,
			Instruction: strings.TrimSpace(d.Instruction),
			Frequency:   freq,
			DaysOfWeek:  append([]int(nil), d.DaysOfWeek...),
		})
	}
	return doses, nil
}
