package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"care-coordination/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("jwt provider not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const defaultTTL = 7 * 24 * time.Hour

type Config struct {
	// Secret firma los tokens (HS256). Viene de JWT_SECRET.
	Secret string
	Issuer string
	TTL    time.Duration
}

// Provider emite y verifica los tokens de sesión. Cumple a la vez el
// TokenIssuer de users y el AuthVerifier del middleware.
type Provider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg Config) *Provider {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "care-coordination"
	}
	return &Provider{
		secret: []byte(strings.TrimSpace(cfg.Secret)),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (p *Provider) IsConfigured() bool {
	return p != nil && len(p.secret) > 0
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issue firma un token de sesión para el usuario.
func (p *Provider) Issue(userID, email, role string) (string, error) {
	if !p.IsConfigured() {
		return "", ErrNotConfigured
	}

	now := p.now()
	claims := sessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify valida firma, expiración e issuer y devuelve los claims.
func (p *Provider) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if !p.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
