package appointments

import "time"

// Status define los estados del turno.
// @Enum pending, approved, rejected, cancelled, completed
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment es un turno entre un paciente y un doctor. Date y Time se
// guardan como strings ("2006-01-02" y "15:04") porque así circulan por
// toda la API y los slots se comparan por igualdad textual.
type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string

	Date     string
	Time     string
	Symptoms string

	Status          Status
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats es el resumen de agenda que ve el doctor en su dashboard.
type Stats struct {
	Total    int `json:"total"`
	Today    int `json:"today"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
}
