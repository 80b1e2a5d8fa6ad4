package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	// El feed es efímero: un día de retención y como mucho 15 entradas.
	pruneAfter = 24 * time.Hour
	pruneKeep  = 15

	defaultListLimit = 7
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create persiste una entrada del feed. Los callers (dispatcher de
// recordatorios, turnos, alertas de stock) la tratan como fire-and-forget.
func (s *Service) Create(ctx context.Context, userID, title, message string, typ Type, data map[string]string) (Notification, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)

	if userID == "" || title == "" || message == "" {
		return Notification{}, ErrInvalidInput
	}
	if typ == "" {
		typ = TypeGeneral
	}

	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Data:      data,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// List devuelve el feed del usuario (más nuevas primero) después de
// podar las entradas viejas.
func (s *Service) List(ctx context.Context, userID string, read *bool, limit int) ([]Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	// poda best-effort; un feed sin podar no es motivo para fallar el GET
	_ = s.repo.Prune(ctx, userID, s.now().Add(-pruneAfter), pruneKeep)

	return s.repo.ListByUser(ctx, userID, ListFilter{Read: read, Limit: limit})
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	return s.repo.DeleteAll(ctx, userID)
}
