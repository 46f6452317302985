package preferences

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-records/internal/middleware"
	"pet-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me/preferences", getPreferencesHandler(svc))
	r.Put("/me/preferences", updatePreferencesHandler(svc))
}

type preferencesResponse struct {
	UserID             string     `json:"user_id"`
	Email              string     `json:"email"`
	EmailNotifications bool       `json:"email_notifications"`
	Timezone           string     `json:"timezone"`
	WelcomeEmailSentAt *time.Time `json:"welcome_email_sent_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type updatePreferencesRequest struct {
	Email              *string `json:"email"`
	EmailNotifications *bool   `json:"email_notifications"`
	Timezone           *string `json:"timezone"`
}

// getPreferencesHandler godoc
// @Summary Mis preferencias
// @Description Crea las preferencias por defecto en el primer acceso.
// @Tags preferences
// @Produce json
// @Success 200 {object} preferencesResponse
// @Router /me/preferences [get]
func getPreferencesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func updatePreferencesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updatePreferencesRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), claims.UserID, claims.Email, UpdateInput{
			Email:              req.Email,
			EmailNotifications: req.EmailNotifications,
			Timezone:           req.Timezone,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func toResponse(p UserPreferences) preferencesResponse {
	return preferencesResponse{
		UserID:             p.UserID,
		Email:              p.Email,
		EmailNotifications: p.EmailNotifications,
		Timezone:           p.Timezone,
		WelcomeEmailSentAt: p.WelcomeEmailSentAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		logger.FromContext(r.Context(), nil).Error("preferences: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
