package users

import "time"

// Role define los roles soportados.
// @Enum patient, doctor, pharmacist
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RolePharmacist Role = "pharmacist"
)

func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacist:
		return true
	}
	return false
}

// Availability es una franja semanal de atención del doctor. Day usa el
// nombre del día en inglés ("Monday"), igual que lo manda la app.
type Availability struct {
	Day  string
	From string
	To   string
}

// DeviceToken es un destino push registrado por un dispositivo concreto.
type DeviceToken struct {
	Token     string
	Device    string
	UpdatedAt time.Time
}

// User representa una cuenta del sistema. Los datos básicos de perfil
// profesional (consultorio, farmacia) viven acá mismo; no hay una
// colección de perfiles aparte.
type User struct {
	ID       string
	FullName string
	Email    string
	Phone    string

	PasswordHash string
	Role         Role

	// Push: un token primario (último registrado) más el set por dispositivo.
	FCMToken     string
	DeviceTokens []DeviceToken

	// Perfil profesional (solo doctor)
	Specialization string
	ClinicName     string
	ClinicAddress  string
	Availability   []Availability

	// Perfil profesional (solo pharmacist)
	PharmacyName    string
	PharmacyAddress string

	ProfileComplete bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
