package emergency

import (
	"context"
	"errors"

	emergencyclient "care-coordination/internal/adapters/emergency"
	"care-coordination/internal/domain/users"
	"care-coordination/internal/platform/logger"
)

var ErrUnavailable = errors.New("emergency service unavailable")

// Gateway es el cliente del servicio externo de emergencias.
type Gateway interface {
	IsConfigured() bool
	BaseURL() string
	Sync(ctx context.Context, p emergencyclient.SyncPayload) (string, error)
	Register(ctx context.Context, p emergencyclient.SyncPayload) (string, error)
	QRURL(ctx context.Context, userID string) (string, error)
	Health(ctx context.Context) error
}

// Directory resuelve el usuario dueño de la ficha.
type Directory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	gateway   Gateway
	directory Directory
	log       logger.Logger
}

func NewService(gateway Gateway, directory Directory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop{}
	}
	return &Service{
		gateway:   gateway,
		directory: directory,
		log:       log,
	}
}

// Sync replica la ficha de salud del usuario. Nunca devuelve error por
// fallas del servicio externo: el resultado lo dice en SyncError y el
// handler responde 200 igual.
func (s *Service) Sync(ctx context.Context, userID string, hp HealthProfile) SyncResult {
	u, err := s.directory.GetByID(ctx, userID)
	if err != nil {
		return SyncResult{SyncError: "user not found"}
	}

	emergencyID, err := s.gateway.Sync(ctx, s.payload(u, &hp))
	if err != nil {
		s.log.Warn("emergency sync failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return SyncResult{SyncError: err.Error()}
	}
	return SyncResult{Synced: true, EmergencyUserID: emergencyID}
}

// RegisterOnSignup da de alta al usuario recién registrado en el
// servicio de emergencias. Best-effort: un fallo solo se loguea, el
// registro local ya está hecho.
func (s *Service) RegisterOnSignup(ctx context.Context, u users.User) {
	if !s.gateway.IsConfigured() {
		return
	}
	if _, err := s.gateway.Register(ctx, s.payload(u, nil)); err != nil {
		s.log.Warn("emergency signup registration failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}
}

// QRURL devuelve la URL pública del perfil de emergencia.
func (s *Service) QRURL(ctx context.Context, userID string) (string, error) {
	url, err := s.gateway.QRURL(ctx, userID)
	if err != nil {
		return "", ErrUnavailable
	}
	return url, nil
}

// Status reporta si el servicio externo responde.
type Status struct {
	Available bool   `json:"available"`
	URL       string `json:"url"`
	Error     string `json:"error,omitempty"`
}

func (s *Service) Health(ctx context.Context) Status {
	st := Status{URL: s.gateway.BaseURL()}
	if err := s.gateway.Health(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Available = true
	return st
}

func (s *Service) payload(u users.User, hp *HealthProfile) emergencyclient.SyncPayload {
	p := emergencyclient.SyncPayload{
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     string(u.Role),
	}
	if hp != nil {
		p.BloodGroup = hp.BloodGroup
		p.Allergies = hp.Allergies
		p.Conditions = hp.Conditions
		p.CurrentMedicines = hp.CurrentMedicines
		p.EmergencyContactName = hp.EmergencyContactName
		p.EmergencyContactRelationship = hp.EmergencyContactRelationship
		p.EmergencyContactPhone = hp.EmergencyContactPhone
		p.EmergencyContactName2 = hp.EmergencyContactName2
		p.EmergencyContactRelationship2 = hp.EmergencyContactRelationship2
		p.EmergencyContactPhone2 = hp.EmergencyContactPhone2
	}
	return p
}
