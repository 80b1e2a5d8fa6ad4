package fcm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"care-coordination/internal/platform/httpclient"
	"care-coordination/internal/ports/push"
)

var (
	ErrNotConfigured = errors.New("fcm client not configured")
	ErrUpstream      = errors.New("fcm upstream error")
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

type Config struct {
	// ServerKey viene de FCM_SERVER_KEY.
	ServerKey string

	// Endpoint se puede pisar en tests; vacío usa el real.
	Endpoint string
	Timeout  time.Duration
}

// Client manda pushes por el endpoint HTTP de FCM. Implementa
// push.Gateway.
type Client struct {
	serverKey string
	endpoint  string
	http      *httpclient.Client
}

func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		serverKey: strings.TrimSpace(cfg.ServerKey),
		endpoint:  endpoint,
		http:      httpclient.New(timeout),
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.serverKey != ""
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmResult struct {
	Error string `json:"error"`
}

type fcmResponse struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Results []fcmResult `json:"results"`
}

// Send entrega un push a un token. Tokens dados de baja por FCM
// ("NotRegistered", "InvalidRegistration") devuelven
// push.ErrTokenInvalid para que el caller los limpie.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return push.ErrTokenInvalid
	}

	req := fcmRequest{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
		Data:         data,
		Priority:     "high",
	}
	headers := map[string]string{
		"Authorization": "key=" + c.serverKey,
	}

	var out fcmResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.endpoint, headers, req, &out); err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return push.ErrTokenInvalid
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if out.Failure > 0 {
		for _, r := range out.Results {
			switch r.Error {
			case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
				return push.ErrTokenInvalid
			}
		}
		return fmt.Errorf("%w: delivery failed", ErrUpstream)
	}
	return nil
}
