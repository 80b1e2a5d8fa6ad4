package notifications

import "time"

type Type string

const (
	TypeGeneral          Type = "general"
	TypeAppointment      Type = "appointment"
	TypePrescription     Type = "prescription"
	TypeMedicineReminder Type = "medicine_reminder"
	TypeLowStockAlert    Type = "low_stock_alert"
	TypeExpiryAlert      Type = "expiry_alert"
)

// Notification es una entrada del feed in-app. Queda persistida aunque
// el push asociado haya fallado: es el registro durable de que el aviso
// correspondía.
type Notification struct {
	ID     string
	UserID string

	Title   string
	Message string
	Type    Type

	// Data acompaña al cliente con ids y metadata para deep-links.
	Data map[string]string

	Read      bool
	CreatedAt time.Time
}
