package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-coordination/internal/domain/stock"
)

type stockRepo struct {
	mu   sync.RWMutex
	byID map[string]stock.Item
}

func NewStockRepo() stock.Repository {
	return &stockRepo{
		byID: make(map[string]stock.Item),
	}
}

func (r *stockRepo) Create(ctx context.Context, item stock.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(item.ID) == "" {
		return errors.New("item id required")
	}
	if _, exists := r.byID[item.ID]; exists {
		return errors.New("item already exists")
	}
	r.byID[item.ID] = item
	return nil
}

func (r *stockRepo) Update(ctx context.Context, item stock.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[item.ID]; !exists {
		return ErrNotFound
	}
	r.byID[item.ID] = item
	return nil
}

func (r *stockRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stockRepo) GetByID(ctx context.Context, id string) (stock.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[id]
	if !ok {
		return stock.Item{}, ErrNotFound
	}
	return item, nil
}

func (r *stockRepo) ListByPharmacist(ctx context.Context, pharmacistID string) ([]stock.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]stock.Item, 0)
	for _, item := range r.byID {
		if item.PharmacistID == pharmacistID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *stockRepo) Search(ctx context.Context, pharmacistID, query string) ([]stock.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]stock.Item, 0)
	for _, item := range r.byID {
		if item.PharmacistID != pharmacistID {
			continue
		}
		if containsFold(item.Name, q) || containsFold(item.Manufacturer, q) ||
			containsFold(item.Category, q) || containsFold(item.BatchNumber, q) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *stockRepo) ListAll(ctx context.Context) ([]stock.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]stock.Item, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func containsFold(s, lowered string) bool {
	return strings.Contains(strings.ToLower(s), lowered)
}
