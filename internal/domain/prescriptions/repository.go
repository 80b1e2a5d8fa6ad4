package prescriptions

import "context"

// Repository persiste recetas. Los filtros opcionales (patientID en
// ListByDoctor, doctorID en ListByPatient) van vacíos para "todas";
// ambos listados vienen de más reciente a más antigua.
type Repository interface {
	Create(ctx context.Context, p Prescription) error
	ListByDoctor(ctx context.Context, doctorID, patientID string) ([]Prescription, error)
	ListByPatient(ctx context.Context, patientID, doctorID string) ([]Prescription, error)
}
