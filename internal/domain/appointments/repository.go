package appointments

import "context"

// Repository persiste turnos. Status vacío en los listados significa
// "todos"; date vacío en ListByDoctor significa "cualquier fecha".
type Repository interface {
	Create(ctx context.Context, a Appointment) error
	Update(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)

	// ListByPatient devuelve los turnos del paciente, más recientes primero.
	ListByPatient(ctx context.Context, patientID string, status Status) ([]Appointment, error)

	// ListByDoctor devuelve la agenda del doctor en orden cronológico.
	ListByDoctor(ctx context.Context, doctorID string, status Status, date string) ([]Appointment, error)

	// BookedTimes devuelve los horarios ocupados (no cancelados) del
	// doctor para una fecha.
	BookedTimes(ctx context.Context, doctorID, date string) ([]string, error)

	// StatsByDoctor cuenta total/hoy/pendientes/aprobados; today es la
	// fecha de hoy en formato "2006-01-02".
	StatsByDoctor(ctx context.Context, doctorID, today string) (Stats, error)
}
