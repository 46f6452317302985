package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pet-records/internal/platform/logger"
	"pet-records/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	DebugUserHeader  = "X-Debug-User-ID"
	DebugEmailHeader = "X-Debug-User-Email"
)

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: si viene header X-Debug-User-ID => setea claims
//   (X-Debug-User-Email opcional).
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
// Con claims, el logger del request pasa a llevar user_id.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev mode: permitir inyectar user sin verifier
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					claims := auth.Claims{
						UserID: uid,
						Email:  strings.TrimSpace(r.Header.Get(DebugEmailHeader)),
					}
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			// Verifier mode
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí para no acoplar. El handler decide 401/403.
				l := logger.FromContext(r.Context(), nil)
				if errors.Is(err, auth.ErrInvalidToken) {
					l.Debug("token rejected", map[string]any{"error": err.Error()})
				} else {
					l.Warn("token verification unavailable", map[string]any{"error": err.Error()})
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
		})
	}
}

// WithClaims guarda claims en el contexto (también lo usan los tests de handlers).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func withUser(ctx context.Context, c auth.Claims) context.Context {
	l := logger.FromContext(ctx, nil).With(map[string]any{"user_id": c.UserID})
	return logger.WithContext(WithClaims(ctx, c), l)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
