package emergency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"care-coordination/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("emergency client not configured")
	ErrUnavailable   = errors.New("emergency service unavailable")
)

// Config del cliente del servicio de emergencias.
// BaseURL normalmente viene de EMERGENCY_MED_URL.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client habla con el servicio externo de fichas de emergencia. Es un
// servicio aparte con su propia base de usuarios; acá solo se sincroniza
// y se consulta.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	hc, err := httpclient.NewWithBaseURL(base, timeout)
	if err != nil {
		// base inválida: el cliente queda sin configurar
		base = ""
		hc = httpclient.New(timeout)
	}
	return &Client{
		baseURL: base,
		http:    hc,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) BaseURL() string { return c.baseURL }

// SyncPayload es la ficha que se replica al servicio de emergencias.
type SyncPayload struct {
	UserID   string `json:"source_user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`

	BloodGroup       string   `json:"blood_group,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	Conditions       []string `json:"conditions,omitempty"`
	CurrentMedicines []string `json:"current_medicines,omitempty"`

	EmergencyContactName         string `json:"emergency_contact_name,omitempty"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship,omitempty"`
	EmergencyContactPhone        string `json:"emergency_contact_phone,omitempty"`

	EmergencyContactName2         string `json:"emergency_contact_name_2,omitempty"`
	EmergencyContactRelationship2 string `json:"emergency_contact_relationship_2,omitempty"`
	EmergencyContactPhone2        string `json:"emergency_contact_phone_2,omitempty"`
}

type syncResponse struct {
	UserID string `json:"userId"`
}

// Sync replica la ficha de salud; devuelve el ID del usuario en el
// servicio de emergencias.
func (c *Client) Sync(ctx context.Context, p SyncPayload) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var out syncResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/api/users/sync", nil, p, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.UserID, nil
}

// Register da de alta al usuario en el servicio de emergencias con los
// datos mínimos de contacto.
func (c *Client) Register(ctx context.Context, p SyncPayload) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var out syncResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/api/users/register", nil, p, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.UserID, nil
}

type qrResponse struct {
	QRURL string `json:"qrUrl"`
}

// QRURL devuelve la URL pública del perfil de emergencia del usuario.
func (c *Client) QRURL(ctx context.Context, userID string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("userID required")
	}

	var out qrResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/api/users/"+userID+"/qr-url", nil, nil, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.QRURL == "" {
		return "", fmt.Errorf("%w: empty qr url", ErrUnavailable)
	}
	return out.QRURL, nil
}

// Health chequea si el servicio responde.
func (c *Client) Health(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, "/health", nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
