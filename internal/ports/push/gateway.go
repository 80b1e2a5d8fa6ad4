package push

import (
	"context"
	"errors"
)

// ErrTokenInvalid indica que el destino ya no existe (token vencido o
// desregistrado). El caller puede limpiar el token; no es un error fatal.
var ErrTokenInvalid = errors.New("push token invalid")

// Gateway envía una notificación push a un device token.
// Un solo intento por llamada; reintentos quedan a cargo del caller (hoy nadie reintenta).
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
