package ratings

import "context"

type Repository interface {
	Create(ctx context.Context, r Rating) error
	Update(ctx context.Context, r Rating) error

	// Find busca la calificación de (target, rater, appointment).
	// appointmentID vacío matchea cualquier calificación del par.
	Find(ctx context.Context, targetID, raterID, appointmentID string) (Rating, error)

	// ListByTarget pagina las calificaciones recibidas, más recientes
	// primero.
	ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]Rating, error)

	// Aggregate devuelve el promedio sin redondear y la cantidad.
	Aggregate(ctx context.Context, targetID string) (avg float64, count int, err error)
}
