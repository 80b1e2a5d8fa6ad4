package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-coordination/internal/domain/users"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const maxReviewLen = 500

// Directory valida que el calificado exista y tenga rol calificable.
type Directory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	repo      Repository
	directory Directory
	now       func() time.Time
}

func NewService(repo Repository, directory Directory) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		now:       time.Now,
	}
}

type SubmitInput struct {
	TargetUserID  string
	Value         int
	Review        string
	AppointmentID string
	ServiceType   ServiceType
}

// Submit registra una calificación. Si el mismo rater ya calificó ese
// turno del mismo target, se actualiza el valor y la reseña en lugar de
// crear otra fila.
func (s *Service) Submit(ctx context.Context, raterID string, in SubmitInput) (Rating, error) {
	if in.Value < 1 || in.Value > 5 {
		return Rating{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	review := strings.TrimSpace(in.Review)
	if len(review) > maxReviewLen {
		return Rating{}, fmt.Errorf("%w: review too long", ErrInvalidInput)
	}

	targetID := strings.TrimSpace(in.TargetUserID)
	target, err := s.directory.GetByID(ctx, targetID)
	if err != nil {
		return Rating{}, fmt.Errorf("%w: target user", ErrNotFound)
	}
	if target.Role != users.RoleDoctor && target.Role != users.RolePharmacist {
		return Rating{}, fmt.Errorf("%w: can only rate doctors and pharmacists", ErrInvalidInput)
	}

	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = ServiceGeneral
	}
	if !ValidServiceType(serviceType) {
		return Rating{}, ErrInvalidInput
	}

	appointmentID := strings.TrimSpace(in.AppointmentID)
	if appointmentID != "" {
		if existing, err := s.repo.Find(ctx, targetID, raterID, appointmentID); err == nil {
			existing.Value = in.Value
			existing.Review = review
			existing.UpdatedAt = s.now()
			if err := s.repo.Update(ctx, existing); err != nil {
				return Rating{}, err
			}
			return existing, nil
		}
	}

	now := s.now()
	r := Rating{
		ID:            uuid.NewString(),
		TargetUserID:  targetID,
		RatedByID:     raterID,
		AppointmentID: appointmentID,
		Value:         in.Value,
		Review:        review,
		ServiceType:   serviceType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Rating{}, err
	}
	return r, nil
}

// List pagina las calificaciones del target junto con el agregado.
func (s *Service) List(ctx context.Context, targetID string, limit, page int) ([]Rating, Average, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	items, err := s.repo.ListByTarget(ctx, targetID, limit, (page-1)*limit)
	if err != nil {
		return nil, Average{}, err
	}
	avg, err := s.AverageFor(ctx, targetID)
	if err != nil {
		return nil, Average{}, err
	}
	return items, avg, nil
}

// AverageFor devuelve el promedio redondeado a un decimal y la cantidad.
// Sin calificaciones: 0 y 0.
func (s *Service) AverageFor(ctx context.Context, targetID string) (Average, error) {
	avg, count, err := s.repo.Aggregate(ctx, targetID)
	if err != nil {
		return Average{}, err
	}
	if count == 0 {
		return Average{}, nil
	}
	return Average{
		Value: math.Round(avg*10) / 10,
		Count: count,
	}, nil
}

// CanRate dice si el rater todavía puede calificar al target (para ese
// turno si se pasa appointmentID). Devuelve la calificación previa si
// existe.
func (s *Service) CanRate(ctx context.Context, raterID, targetID, appointmentID string) (bool, *Rating, error) {
	existing, err := s.repo.Find(ctx, strings.TrimSpace(targetID), raterID, strings.TrimSpace(appointmentID))
	if err != nil {
		return true, nil, nil
	}
	return false, &existing, nil
}
