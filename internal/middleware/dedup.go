package middleware

import (
	"net/http"
	"time"

	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/ports/dedup"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Dedup rechaza con 409 la misma mutación (usuario + método + path) repetida
// dentro de ttl. Si el guard falla se deja pasar el request.
// La key se libera antes de tiempo solo si la respuesta fue 5xx, para permitir reintentos.
func Dedup(guard dedup.Guard, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := dedupKey(r)
			ok, err := guard.Acquire(r.Context(), key, ttl)
			if err != nil {
				logger.FromContext(r.Context(), nil).Warn("dedup guard unavailable", map[string]any{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.DedupRejected.Inc()
				http.Error(w, "duplicate request", http.StatusConflict)
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= 500 {
				_ = guard.Release(r.Context(), key)
			}
		})
	}
}

func dedupKey(r *http.Request) string {
	who := "anon:" + r.RemoteAddr
	if c, ok := GetClaims(r.Context()); ok && c.UserID != "" {
		who = "user:" + c.UserID
	}
	return who + ":" + r.Method + ":" + r.URL.Path
}
