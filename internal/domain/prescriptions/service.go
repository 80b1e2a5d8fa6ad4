package prescriptions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-coordination/internal/domain/appointments"
	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/domain/users"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not allowed")
)

// Directory resuelve usuarios (roles, nombres para los listados).
type Directory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// AppointmentSource alimenta el listado de pacientes del doctor con los
// turnos ya atendidos. Lo satisface el repository de appointments.
type AppointmentSource interface {
	ListByDoctor(ctx context.Context, doctorID string, status appointments.Status, date string) ([]appointments.Appointment, error)
}

// Notifier manda el aviso in-app + push. Puede ser nil.
type Notifier interface {
	Send(ctx context.Context, userID, title, body string, typ notifications.Type, data map[string]string)
}

type Service struct {
	repo      Repository
	directory Directory
	appts     AppointmentSource
	notifier  Notifier
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, appts AppointmentSource, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		appts:     appts,
		notifier:  notifier,
		now:       time.Now,
	}
}

type CreateInput struct {
	PatientID string
	Type      Type
	Content   string
	Diagnosis string
	Notes     string
}

// Create emite una receta para un paciente y le avisa. Solo doctores.
func (s *Service) Create(ctx context.Context, doctorID string, in CreateInput) (Prescription, error) {
	doctor, err := s.directory.GetByID(ctx, doctorID)
	if err != nil || doctor.Role != users.RoleDoctor {
		return Prescription{}, fmt.Errorf("%w: doctor role required", ErrForbidden)
	}

	patientID := strings.TrimSpace(in.PatientID)
	content := strings.TrimSpace(in.Content)
	if patientID == "" || content == "" || !ValidType(in.Type) {
		return Prescription{}, ErrInvalidInput
	}
	if _, err := s.directory.GetByID(ctx, patientID); err != nil {
		return Prescription{}, fmt.Errorf("%w: patient", ErrNotFound)
	}

	p := Prescription{
		ID:        uuid.NewString(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Type:      in.Type,
		Content:   content,
		Diagnosis: strings.TrimSpace(in.Diagnosis),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Prescription{}, err
	}

	if s.notifier != nil {
		s.notifier.Send(ctx, patientID, "New Prescription",
			fmt.Sprintf("Dr. %s issued you a new prescription", doctor.FullName),
			notifications.TypePrescription, map[string]string{
				"type":            string(notifications.TypePrescription),
				"prescription_id": p.ID,
				"doctor_id":       doctorID,
			})
	}
	return p, nil
}

// ListForDoctor devuelve las recetas emitidas por el doctor, con filtro
// opcional por paciente.
func (s *Service) ListForDoctor(ctx context.Context, doctorID, patientID string) ([]Prescription, error) {
	return s.repo.ListByDoctor(ctx, doctorID, strings.TrimSpace(patientID))
}

// ListForPatient devuelve las recetas del paciente, con filtro opcional
// por doctor.
func (s *Service) ListForPatient(ctx context.Context, patientID, doctorID string) ([]Prescription, error) {
	return s.repo.ListByPatient(ctx, patientID, strings.TrimSpace(doctorID))
}

// PatientDoctors lista los doctores que le recetaron al paciente, sin
// duplicados, con la fecha de la última receta.
func (s *Service) PatientDoctors(ctx context.Context, patientID string) ([]Contact, error) {
	items, err := s.repo.ListByPatient(ctx, patientID, "")
	if err != nil {
		return nil, err
	}

	seen := map[string]*Contact{}
	for _, p := range items {
		if c, ok := seen[p.DoctorID]; ok {
			if p.CreatedAt.After(c.LastSeen) {
				c.LastSeen = p.CreatedAt
			}
			continue
		}
		seen[p.DoctorID] = &Contact{ID: p.DoctorID, LastSeen: p.CreatedAt}
	}
	return s.resolveContacts(ctx, seen), nil
}

// DoctorPatients combina los pacientes con turnos atendidos (aprobados
// o completados) y los que recibieron recetas.
func (s *Service) DoctorPatients(ctx context.Context, doctorID string) ([]Contact, error) {
	seen := map[string]*Contact{}

	for _, status := range []appointments.Status{appointments.StatusApproved, appointments.StatusCompleted} {
		appts, err := s.appts.ListByDoctor(ctx, doctorID, status, "")
		if err != nil {
			return nil, err
		}
		for _, a := range appts {
			if c, ok := seen[a.PatientID]; ok {
				if a.CreatedAt.After(c.LastSeen) {
					c.LastSeen = a.CreatedAt
				}
				continue
			}
			seen[a.PatientID] = &Contact{ID: a.PatientID, LastSeen: a.CreatedAt}
		}
	}

	items, err := s.repo.ListByDoctor(ctx, doctorID, "")
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		if c, ok := seen[p.PatientID]; ok {
			if p.CreatedAt.After(c.LastSeen) {
				c.LastSeen = p.CreatedAt
			}
			continue
		}
		seen[p.PatientID] = &Contact{ID: p.PatientID, LastSeen: p.CreatedAt}
	}
	return s.resolveContacts(ctx, seen), nil
}

// resolveContacts completa nombre y contacto de cada entrada; usuarios
// borrados se omiten. Orden: último contacto primero.
func (s *Service) resolveContacts(ctx context.Context, seen map[string]*Contact) []Contact {
	out := make([]Contact, 0, len(seen))
	for _, c := range seen {
		u, err := s.directory.GetByID(ctx, c.ID)
		if err != nil {
			continue
		}
		c.FullName = u.FullName
		c.Email = u.Email
		c.Phone = u.Phone
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}
