package medicines

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, m Medicine) error
	// Update persiste los campos del medicamento y reemplaza el set
	// completo de doses. No toca el log de tomas.
	Update(ctx context.Context, m Medicine) error
	GetByID(ctx context.Context, id string) (Medicine, error)
	ListActiveByUser(ctx context.Context, userID string) ([]Medicine, error)
	// ListActiveAll devuelve los medicamentos activos cuyo endDate es nulo
	// o no anterior a notEndedBefore. Lo usa el rebuild del scheduler.
	ListActiveAll(ctx context.Context, notEndedBefore time.Time) ([]Medicine, error)

	AppendTaken(ctx context.Context, medicineID string, rec TakenRecord) error
	RemoveTaken(ctx context.Context, medicineID, date, tod string) error
}
