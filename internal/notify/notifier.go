package notify

import (
	"context"
	"errors"

	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/platform/logger"
	"care-coordination/internal/ports/push"
)

// Directory resuelve destinos push por usuario (lo implementa users.Service).
type Directory interface {
	PushTokens(ctx context.Context, userID string) ([]string, error)
	ClearToken(ctx context.Context, userID, token string)
}

// Notifier combina la entrada in-app y el push best-effort. Lo usan
// turnos, recetas y alertas de stock; el scheduler de recordatorios
// tiene su propio dispatcher con semántica ligeramente distinta.
type Notifier struct {
	directory Directory
	gateway   push.Gateway
	feed      *notifications.Service
	log       logger.Logger
}

func NewNotifier(directory Directory, gateway push.Gateway, feed *notifications.Service, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop{}
	}
	return &Notifier{
		directory: directory,
		gateway:   gateway,
		feed:      feed,
		log:       log,
	}
}

// Send persiste la notificación in-app siempre, y después intenta el
// push a cada token registrado. Ningún fallo de push se propaga; un
// token inválido se limpia del usuario.
func (n *Notifier) Send(ctx context.Context, userID, title, body string, typ notifications.Type, data map[string]string) {
	if _, err := n.feed.Create(ctx, userID, title, body, typ, data); err != nil {
		n.log.Error("create feed notification failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	tokens, err := n.directory.PushTokens(ctx, userID)
	if err != nil || len(tokens) == 0 {
		return
	}

	for _, token := range tokens {
		if err := n.gateway.Send(ctx, token, title, body, data); err != nil {
			if errors.Is(err, push.ErrTokenInvalid) {
				n.directory.ClearToken(ctx, userID, token)
			}
			n.log.Warn("push send failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
}
