package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-coordination/internal/domain/ratings"
)

type ratingsRepo struct {
	mu   sync.RWMutex
	byID map[string]ratings.Rating
}

func NewRatingsRepo() ratings.Repository {
	return &ratingsRepo{
		byID: make(map[string]ratings.Rating),
	}
}

func (r *ratingsRepo) Create(ctx context.Context, rt ratings.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rt.ID) == "" {
		return errors.New("rating id required")
	}
	if _, exists := r.byID[rt.ID]; exists {
		return errors.New("rating already exists")
	}
	r.byID[rt.ID] = rt
	return nil
}

func (r *ratingsRepo) Update(ctx context.Context, rt ratings.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rt.ID]; !exists {
		return ErrNotFound
	}
	r.byID[rt.ID] = rt
	return nil
}

func (r *ratingsRepo) Find(ctx context.Context, targetID, raterID, appointmentID string) (ratings.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.byID {
		if rt.TargetUserID != targetID || rt.RatedByID != raterID {
			continue
		}
		if appointmentID != "" && rt.AppointmentID != appointmentID {
			continue
		}
		return rt, nil
	}
	return ratings.Rating{}, ErrNotFound
}

func (r *ratingsRepo) ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]ratings.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ratings.Rating, 0)
	for _, rt := range r.byID {
		if rt.TargetUserID == targetID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []ratings.Rating{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ratingsRepo) Aggregate(ctx context.Context, targetID string) (float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum, count := 0, 0
	for _, rt := range r.byID {
		if rt.TargetUserID == targetID {
			sum += rt.Value
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
