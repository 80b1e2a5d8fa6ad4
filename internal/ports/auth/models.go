package auth

// Claims representa la información extraída del token.
// Role viaja en el token para no golpear la DB en cada request;
// los handlers que necesitan el rol fresco lo releen del directorio.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
