package reminder

import (
	"context"
	"errors"
	"fmt"

	"care-coordination/internal/domain/medicines"
	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/platform/logger"
	"care-coordination/internal/ports/push"
)

// Directory resuelve los destinos push de un usuario. Lo implementa el
// service de users; en tests se usa un fake.
type Directory interface {
	PushTokens(ctx context.Context, userID string) ([]string, error)
	ClearToken(ctx context.Context, userID, token string)
}

// Feed persiste la entrada in-app del recordatorio. Lo implementa el
// service de notifications.
type Feed interface {
	Create(ctx context.Context, userID, title, message string, typ notifications.Type, data map[string]string) (notifications.Notification, error)
}

// Reminder es la descripción pura de un recordatorio listo para enviar.
// Separarla del envío deja el template testeable sin timers ni mocks.
type Reminder struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

// BuildReminder arma título/cuerpo a partir del medicamento y la toma.
func BuildReminder(m medicines.Medicine, d medicines.Dose) Reminder {
	return Reminder{
		UserID: m.UserID,
		Title:  "Medicine Reminder",
		Body:   fmt.Sprintf("Time to take %s - %s", m.Name, m.Dosage),
		Data: map[string]string{
			"type":          string(notifications.TypeMedicineReminder),
			"medicine_id":   m.ID,
			"medicine_name": m.Name,
			"dosage":        m.Dosage,
			"time":          d.Time,
		},
	}
}

// Dispatcher ejecuta el efecto de un timer disparado: un intento de push
// (como mucho uno por token) y la entrada durable en el feed.
type Dispatcher struct {
	directory Directory
	gateway   push.Gateway
	feed      Feed
	log       logger.Logger
}

func NewDispatcher(directory Directory, gateway push.Gateway, feed Feed, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop{}
	}
	return &Dispatcher{
		directory: directory,
		gateway:   gateway,
		feed:      feed,
		log:       log,
	}
}

// Dispatch envía el recordatorio de una toma. Un push fallido se loguea y
// no se propaga: la entrada del feed se crea igual, para que el paciente
// vea el aviso al abrir la app. Sin destinos registrados no hay nada que
// avisar y se sale en silencio.
func (d *Dispatcher) Dispatch(ctx context.Context, m medicines.Medicine, dose medicines.Dose) error {
	rem := BuildReminder(m, dose)

	tokens, err := d.directory.PushTokens(ctx, rem.UserID)
	if err != nil {
		return fmt.Errorf("resolve push tokens: %w", err)
	}
	if len(tokens) == 0 {
		d.log.Info("no push destination for user, skipping reminder", map[string]any{
			"user_id":  rem.UserID,
			"medicine": m.Name,
		})
		return nil
	}

	for _, token := range tokens {
		if err := d.gateway.Send(ctx, token, rem.Title, rem.Body, rem.Data); err != nil {
			if errors.Is(err, push.ErrTokenInvalid) {
				// token vencido: se limpia y se sigue con el resto
				d.directory.ClearToken(ctx, rem.UserID, token)
			}
			d.log.Warn("push send failed", map[string]any{
				"user_id": rem.UserID,
				"error":   err.Error(),
			})
		}
	}

	if _, err := d.feed.Create(ctx, rem.UserID, rem.Title, rem.Body, notifications.TypeMedicineReminder, rem.Data); err != nil {
		return fmt.Errorf("persist reminder notification: %w", err)
	}
	return nil
}
