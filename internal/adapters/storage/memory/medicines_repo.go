package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"care-coordination/internal/domain/medicines"
)

type medicinesRepo struct {
	mu   sync.RWMutex
	byID map[string]medicines.Medicine
}

func NewMedicinesRepo() medicines.Repository {
	return &medicinesRepo{
		byID: make(map[string]medicines.Medicine),
	}
}

func (r *medicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.byID[m.ID] = cloneMedicine(m)
	return nil
}

// Update reemplaza campos y doses pero conserva el log de tomas que ya
// estaba persistido.
func (r *medicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[m.ID]
	if !exists {
		return ErrNotFound
	}
	next := cloneMedicine(m)
	next.Taken = prev.Taken
	r.byID[m.ID] = next
	return nil
}

func (r *medicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medicines.Medicine{}, ErrNotFound
	}
	return cloneMedicine(m), nil
}

func (r *medicinesRepo) ListActiveByUser(ctx context.Context, userID string) ([]medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.byID {
		if m.Active && m.UserID == userID {
			out = append(out, cloneMedicine(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *medicinesRepo) ListActiveAll(ctx context.Context, notEndedBefore time.Time) ([]medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.byID {
		if !m.Active {
			continue
		}
		if m.EndDate != nil && m.EndDate.Before(notEndedBefore) {
			continue
		}
		out = append(out, cloneMedicine(m))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *medicinesRepo) AppendTaken(ctx context.Context, medicineID string, rec medicines.TakenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.byID[medicineID]
	if !exists {
		return ErrNotFound
	}
	for _, t := range m.Taken {
		if t.Date == rec.Date && t.Time == rec.Time {
			return errors.New("already marked")
		}
	}
	m.Taken = append(m.Taken, rec)
	r.byID[medicineID] = m
	return nil
}

func (r *medicinesRepo) RemoveTaken(ctx context.Context, medicineID, date, tod string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.byID[medicineID]
	if !exists {
		return ErrNotFound
	}

	kept := m.Taken[:0]
	removed := false
	for _, t := range m.Taken {
		if t.Date == date && t.Time == tod {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return ErrNotFound
	}
	m.Taken = kept
	r.byID[medicineID] = m
	return nil
}

func cloneMedicine(m medicines.Medicine) medicines.Medicine {
	out := m
	out.Doses = make([]medicines.Dose, len(m.Doses))
	for i, d := range m.Doses {
		out.Doses[i] = d
		out.Doses[i].DaysOfWeek = append([]int(nil), d.DaysOfWeek...)
	}
	out.Taken = append([]medicines.TakenRecord(nil), m.Taken...)
	return out
}
