// Package auth define el contrato entre el middleware y los verificadores de token.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken: token ausente, vencido o con firma/issuer/audience incorrectos.
var ErrInvalidToken = errors.New("invalid token")

// Claims del usuario autenticado. UserID es el "sub" del token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
