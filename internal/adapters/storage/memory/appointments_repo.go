package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-coordination/internal/domain/appointments"
)

type appointmentsRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentsRepo() appointments.Repository {
	return &appointmentsRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *appointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *appointmentsRepo) ListByPatient(ctx context.Context, patientID string, status appointments.Status) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.PatientID != patientID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}

	// más recientes primero
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (r *appointmentsRepo) ListByDoctor(ctx context.Context, doctorID string, status appointments.Status, date string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.DoctorID != doctorID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if date != "" && a.Date != date {
			continue
		}
		out = append(out, a)
	}

	// agenda en orden cronológico
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *appointmentsRepo) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, a := range r.byID {
		if a.DoctorID == doctorID && a.Date == date && a.Status != appointments.StatusCancelled {
			out = append(out, a.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *appointmentsRepo) StatsByDoctor(ctx context.Context, doctorID, today string) (appointments.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats appointments.Stats
	for _, a := range r.byID {
		if a.DoctorID != doctorID {
			continue
		}
		stats.Total++
		if a.Date == today {
			stats.Today++
		}
		switch a.Status {
		case appointments.StatusPending:
			stats.Pending++
		case appointments.StatusApproved:
			stats.Approved++
		}
	}
	return stats, nil
}
