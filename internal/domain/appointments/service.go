package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/domain/users"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("appointment not found")
	ErrForbidden    = errors.New("not allowed")
	ErrSlotTaken    = errors.New("time slot already booked")
	ErrBadState     = errors.New("invalid status transition")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	slotStep = 30 * time.Minute
)

// Directory resuelve usuarios para validar roles y armar los textos de
// notificación. Lo implementa el service de users.
type Directory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Notifier manda el aviso in-app + push. Puede ser nil (tests, dev).
type Notifier interface {
	Send(ctx context.Context, userID, title, body string, typ notifications.Type, data map[string]string)
}

type Service struct {
	repo      Repository
	directory Directory
	notifier  Notifier
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		now:       time.Now,
	}
}

type BookInput struct {
	DoctorID string
	Date     string
	Time     string
	Symptoms string
}

// Book crea un turno pendiente. El slot se reserva por igualdad exacta
// de (doctor, fecha, horario): dos turnos no cancelados no pueden
// compartirlo.
func (s *Service) Book(ctx context.Context, patientID string, in BookInput) (Appointment, error) {
	doctorID := strings.TrimSpace(in.DoctorID)
	if doctorID == "" || in.Date == "" || in.Time == "" {
		return Appointment{}, ErrInvalidInput
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return Appointment{}, ErrInvalidInput
	}
	if _, err := time.Parse(timeLayout, in.Time); err != nil {
		return Appointment{}, ErrInvalidInput
	}

	doctor, err := s.directory.GetByID(ctx, doctorID)
	if err != nil || doctor.Role != users.RoleDoctor {
		return Appointment{}, fmt.Errorf("%w: doctor", ErrNotFound)
	}
	if patientID == doctorID {
		return Appointment{}, fmt.Errorf("%w: cannot book with yourself", ErrInvalidInput)
	}

	taken, err := s.repo.BookedTimes(ctx, doctorID, in.Date)
	if err != nil {
		return Appointment{}, err
	}
	for _, t := range taken {
		if t == in.Time {
			return Appointment{}, ErrSlotTaken
		}
	}

	now := s.now()
	a := Appointment{
		ID:        uuid.NewString(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      in.Date,
		Time:      in.Time,
		Symptoms:  strings.TrimSpace(in.Symptoms),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}

	s.notify(ctx, doctorID, "New Appointment Request",
		fmt.Sprintf("You have a new appointment request for %s at %s", a.Date, a.Time), a)
	return a, nil
}

// ListForPatient devuelve los turnos del paciente, opcionalmente
// filtrados por status.
func (s *Service) ListForPatient(ctx context.Context, patientID string, status Status) ([]Appointment, error) {
	if status != "" && !ValidStatus(status) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPatient(ctx, patientID, status)
}

// ListForDoctor devuelve la agenda del doctor. Solo un doctor puede
// consultarla.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string, status Status, date string) ([]Appointment, error) {
	if status != "" && !ValidStatus(status) {
		return nil, ErrInvalidInput
	}
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, ErrInvalidInput
		}
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListByDoctor(ctx, doctorID, status, date)
}

// Get devuelve un turno; solo lo ven sus dos participantes.
func (s *Service) Get(ctx context.Context, userID, id string) (Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, ErrNotFound
	}
	if a.PatientID != userID && a.DoctorID != userID {
		return Appointment{}, ErrForbidden
	}
	return a, nil
}

// UpdateStatus aplica una transición de estado. El doctor solo puede
// aprobar o rechazar (con motivo opcional); el paciente solo cancelar.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status Status, reason string) (Appointment, error) {
	if !ValidStatus(status) {
		return Appointment{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, ErrNotFound
	}

	isDoctor := a.DoctorID == actorID
	isPatient := a.PatientID == actorID
	switch {
	case !isDoctor && !isPatient:
		return Appointment{}, ErrForbidden
	case isDoctor && status != StatusApproved && status != StatusRejected:
		return Appointment{}, fmt.Errorf("%w: doctors can only approve or reject", ErrBadState)
	case isPatient && status != StatusCancelled:
		return Appointment{}, fmt.Errorf("%w: patients can only cancel", ErrBadState)
	}

	a.Status = status
	if status == StatusRejected {
		a.RejectionReason = strings.TrimSpace(reason)
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}

	// El aviso va siempre a la contraparte del que actuó.
	switch status {
	case StatusApproved:
		s.notify(ctx, a.PatientID, "Appointment Approved",
			fmt.Sprintf("Your appointment for %s at %s was approved", a.Date, a.Time), a)
	case StatusRejected:
		body := fmt.Sprintf("Your appointment for %s at %s was rejected", a.Date, a.Time)
		if a.RejectionReason != "" {
			body += ": " + a.RejectionReason
		}
		s.notify(ctx, a.PatientID, "Appointment Rejected", body, a)
	case StatusCancelled:
		s.notify(ctx, a.DoctorID, "Appointment Cancelled",
			fmt.Sprintf("The appointment for %s at %s was cancelled by the patient", a.Date, a.Time), a)
	}
	return a, nil
}

// AvailableSlots genera los horarios libres de 30 minutos del doctor
// para una fecha, a partir de su franja semanal menos los ya reservados.
// Sin franja configurada para ese día devuelve lista vacía, no error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil || strings.TrimSpace(doctorID) == "" {
		return nil, ErrInvalidInput
	}

	doctor, err := s.directory.GetByID(ctx, doctorID)
	if err != nil || doctor.Role != users.RoleDoctor {
		return nil, fmt.Errorf("%w: doctor", ErrNotFound)
	}

	var window *users.Availability
	for i := range doctor.Availability {
		if doctor.Availability[i].Day == day.Weekday().String() {
			window = &doctor.Availability[i]
			break
		}
	}
	if window == nil {
		return []string{}, nil
	}

	taken, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		booked[t] = struct{}{}
	}

	from, err := time.Parse(timeLayout, window.From)
	if err != nil {
		return nil, ErrInvalidInput
	}
	to, err := time.Parse(timeLayout, window.To)
	if err != nil {
		return nil, ErrInvalidInput
	}

	slots := []string{}
	for cur := from; cur.Before(to); cur = cur.Add(slotStep) {
		slot := cur.Format(timeLayout)
		if _, ok := booked[slot]; !ok {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// Stats cuenta la agenda del doctor: total, hoy, pendientes, aprobados.
func (s *Service) Stats(ctx context.Context, doctorID string) (Stats, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return Stats{}, err
	}
	return s.repo.StatsByDoctor(ctx, doctorID, s.now().Format(dateLayout))
}

func (s *Service) requireDoctor(ctx context.Context, userID string) error {
	u, err := s.directory.GetByID(ctx, userID)
	if err != nil || u.Role != users.RoleDoctor {
		return fmt.Errorf("%w: doctor role required", ErrForbidden)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID, title, body string, a Appointment) {
	if s.notifier == nil {
		return
	}
	s.notifier.Send(ctx, userID, title, body, notifications.TypeAppointment, map[string]string{
		"type":           string(notifications.TypeAppointment),
		"appointment_id": a.ID,
		"date":           a.Date,
		"time":           a.Time,
		"status":         string(a.Status),
	})
}
