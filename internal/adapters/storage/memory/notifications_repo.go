package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"care-coordination/internal/domain/notifications"
)

type notificationsRepo struct {
	mu   sync.RWMutex
	byID map[string]notifications.Notification
}

func NewNotificationsRepo() notifications.Repository {
	return &notificationsRepo{
		byID: make(map[string]notifications.Notification),
	}
}

func (r *notificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.ID) == "" {
		return errors.New("notification id required")
	}
	r.byID[n.ID] = cloneNotification(n)
	return nil
}

func (r *notificationsRepo) ListByUser(ctx context.Context, userID string, filter notifications.ListFilter) ([]notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notifications.Notification, 0)
	for _, n := range r.byID {
		if n.UserID != userID {
			continue
		}
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		out = append(out, cloneNotification(n))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *notificationsRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.byID {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	r.byID[id] = n
	return nil
}

func (r *notificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.byID {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.byID[id] = n
		}
	}
	return nil
}

func (r *notificationsRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *notificationsRepo) DeleteAll(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.byID {
		if n.UserID == userID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *notificationsRepo) Prune(ctx context.Context, userID string, cutoff time.Time, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := make([]notifications.Notification, 0)
	for id, n := range r.byID {
		if n.UserID != userID {
			continue
		}
		if n.CreatedAt.Before(cutoff) {
			delete(r.byID, id)
			continue
		}
		remaining = append(remaining, n)
	}

	if keep <= 0 || len(remaining) <= keep {
		return nil
	}

	// se quedan las keep más nuevas
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].CreatedAt.After(remaining[j].CreatedAt)
	})
	for _, n := range remaining[keep:] {
		delete(r.byID, n.ID)
	}
	return nil
}

func cloneNotification(n notifications.Notification) notifications.Notification {
	out := n
	if n.Data != nil {
		out.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			out.Data[k] = v
		}
	}
	return out
}
