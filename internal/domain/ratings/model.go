package ratings

import "time"

// ServiceType clasifica qué se está calificando.
// @Enum consultation, appointment, pharmacy, general
type ServiceType string

const (
	ServiceConsultation ServiceType = "consultation"
	ServiceAppointment  ServiceType = "appointment"
	ServicePharmacy     ServiceType = "pharmacy"
	ServiceGeneral      ServiceType = "general"
)

func ValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceConsultation, ServiceAppointment, ServicePharmacy, ServiceGeneral:
		return true
	}
	return false
}

// Rating es una calificación 1-5 de un paciente a un doctor o
// farmacéutico. La tupla (target, rater, appointment) es única: volver a
// calificar el mismo turno actualiza en lugar de duplicar.
type Rating struct {
	ID            string
	TargetUserID  string
	RatedByID     string
	AppointmentID string

	Value       int
	Review      string
	ServiceType ServiceType

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Average es el agregado que se muestra en el perfil público.
type Average struct {
	Value float64 `json:"average_rating"`
	Count int     `json:"total_ratings"`
}
