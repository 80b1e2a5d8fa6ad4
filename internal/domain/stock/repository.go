package stock

import "context"

type Repository interface {
	Create(ctx context.Context, item Item) error
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Item, error)

	// ListByPharmacist devuelve el inventario ordenado por nombre.
	ListByPharmacist(ctx context.Context, pharmacistID string) ([]Item, error)

	// Search matchea query (case-insensitive) contra nombre, fabricante,
	// categoría y número de lote.
	Search(ctx context.Context, pharmacistID, query string) ([]Item, error)

	// ListAll devuelve el inventario completo; lo usa el checker de alertas.
	ListAll(ctx context.Context) ([]Item, error)
}
