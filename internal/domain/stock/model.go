package stock

import "time"

// expiryWindow es la ventana de "vence pronto".
const expiryWindow = 30 * 24 * time.Hour

// Item es una posición de inventario de la farmacia. Los timestamps de
// último aviso sostienen el throttle de 24h de las alertas.
type Item struct {
	ID           string
	PharmacistID string

	Name         string
	BatchNumber  string
	ExpiryDate   time.Time
	Quantity     int
	Price        float64
	Manufacturer string
	Category     string

	LowStockLevel int

	LastLowStockAlert *time.Time
	LastExpiryAlert   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Item) IsLowStock() bool {
	return i.Quantity <= i.LowStockLevel
}

func (i Item) IsExpired(now time.Time) bool {
	return i.ExpiryDate.Before(now)
}

func (i Item) IsExpiringSoon(now time.Time) bool {
	return !i.ExpiryDate.After(now.Add(expiryWindow))
}
