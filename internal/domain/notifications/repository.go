package notifications

import (
	"context"
	"time"
)

type ListFilter struct {
	Read  *bool
	Limit int
}

type Repository interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
	// Prune borra entradas anteriores a cutoff y deja como mucho keep
	// de las restantes (las más nuevas).
	Prune(ctx context.Context, userID string, cutoff time.Time, keep int) error
}
