package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-coordination/internal/domain/prescriptions"
)

type prescriptionsRepo struct {
	mu   sync.RWMutex
	byID map[string]prescriptions.Prescription
}

func NewPrescriptionsRepo() prescriptions.Repository {
	return &prescriptionsRepo{
		byID: make(map[string]prescriptions.Prescription),
	}
}

func (r *prescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("prescription id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("prescription already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *prescriptionsRepo) ListByDoctor(ctx context.Context, doctorID, patientID string) ([]prescriptions.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prescriptions.Prescription, 0)
	for _, p := range r.byID {
		if p.DoctorID != doctorID {
			continue
		}
		if patientID != "" && p.PatientID != patientID {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *prescriptionsRepo) ListByPatient(ctx context.Context, patientID, doctorID string) ([]prescriptions.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prescriptions.Prescription, 0)
	for _, p := range r.byID {
		if p.PatientID != patientID {
			continue
		}
		if doctorID != "" && p.DoctorID != doctorID {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(items []prescriptions.Prescription) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
