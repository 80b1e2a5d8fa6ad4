package emergency

// HealthProfile es la ficha de salud que el paciente carga en la app y
// que se replica al servicio de emergencias.
type HealthProfile struct {
	BloodGroup       string   `json:"blood_group"`
	Allergies        []string `json:"allergies"`
	Conditions       []string `json:"conditions"`
	CurrentMedicines []string `json:"current_medicines"`

	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`
	EmergencyContactPhone        string `json:"emergency_contact_phone"`

	EmergencyContactName2         string `json:"emergency_contact_name_2"`
	EmergencyContactRelationship2 string `json:"emergency_contact_relationship_2"`
	EmergencyContactPhone2        string `json:"emergency_contact_phone_2"`
}

// SyncResult es lo que vuelve de un intento de sync. Un sync fallido no
// es un error del request: SyncError queda seteado y el caller decide.
type SyncResult struct {
	Synced          bool   `json:"synced"`
	EmergencyUserID string `json:"emergency_user_id,omitempty"`
	SyncError       string `json:"sync_error,omitempty"`
}
