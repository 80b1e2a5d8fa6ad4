package logonly

import (
	"context"

	"care-coordination/internal/platform/logger"
)

// Gateway es el push de desarrollo: loguea en lugar de entregar. Se usa
// cuando FCM_SERVER_KEY no está configurada.
type Gateway struct {
	log logger.Logger
}

func New(log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop{}
	}
	return &Gateway{log: log}
}

func (g *Gateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	g.log.Info("push (log-only)", map[string]any{
		"token": token,
		"title": title,
		"body":  body,
	})
	return nil
}
