package prescriptions

import "time"

// Type distingue recetas de texto plano de las subidas como imagen
// (Content guarda el texto o la URL según el caso).
// @Enum text, image
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

func ValidType(t Type) bool {
	return t == TypeText || t == TypeImage
}

type Prescription struct {
	ID        string
	DoctorID  string
	PatientID string

	Type      Type
	Content   string
	Diagnosis string
	Notes     string

	CreatedAt time.Time
}

// Contact es una entrada de los listados de "mis doctores" / "mis
// pacientes": la persona más la fecha del último contacto.
type Contact struct {
	ID       string    `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}
