package notify

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-records/internal/domain/documents"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/validation"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

// JobTokenHeader autentica las llamadas del scheduler externo a /jobs/*.
const JobTokenHeader = "X-Job-Token"

// RegisterRoutes monta /contact, /me/email-logs y /jobs/*.
// contactLimit es el rate limit por IP del formulario público.
func RegisterRoutes(r chi.Router, svc *Service, contactLimit func(http.Handler) http.Handler, jobToken string, dedupe func(http.Handler) http.Handler) {
	r.With(contactLimit).Post("/contact", contactHandler(svc))
	r.Get("/me/email-logs", listLogsHandler(svc))

	r.Route("/jobs", func(jr chi.Router) {
		jr.Use(requireJobToken(jobToken))
		jr.With(dedupe).Post("/reminder-emails", reminderJobHandler(svc))
		jr.With(dedupe).Post("/welcome-emails", welcomeJobHandler(svc))
	})
}

// ShareEmailRoute cuelga POST /documents/{documentID}/share/email.
func ShareEmailRoute(svc *Service, dedupe func(http.Handler) http.Handler) func(chi.Router) {
	return func(dr chi.Router) {
		dr.With(dedupe).Post("/{documentID}/share/email", shareEmailHandler(svc))
	}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// contactHandler godoc
// @Summary Formulario de contacto
// @Tags notify
// @Accept json
// @Produce json
// @Param body body contactRequest true "Mensaje"
// @Success 200 {object} statusResponse "sent"
// @Success 202 {object} statusResponse "queued"
// @Failure 400 {object} errorResponse
// @Failure 429 {string} string "too many requests"
// @Failure 502 {object} errorResponse
// @Router /contact [post]
func contactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validation.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		st, err := svc.Contact(r.Context(), ContactInput{
			Name:    req.Name,
			Email:   req.Email,
			Subject: req.Subject,
			Message: req.Message,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, statusCode(st), statusResponse{Status: string(st)})
	}
}

type shareEmailRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email,max=254"`
	Message        string `json:"message" validate:"max=2000"`
	TTLHours       int    `json:"ttl_hours" validate:"gte=0"`
}

type shareEmailResponse struct {
	Status    string    `json:"status"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// shareEmailHandler godoc
// @Summary Enviar documento por email
// @Tags notify
// @Accept json
// @Produce json
// @Param documentID path string true "Documento"
// @Param body body shareEmailRequest true "Destinatario"
// @Success 200 {object} shareEmailResponse
// @Success 202 {object} shareEmailResponse
// @Failure 402 {object} errorResponse
// @Router /documents/{documentID}/share/email [post]
func shareEmailHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req shareEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validation.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := svc.ShareDocument(r.Context(), claims.UserID, claims.Email, chi.URLParam(r, "documentID"), ShareInput{
			RecipientEmail: req.RecipientEmail,
			Message:        req.Message,
			TTL:            time.Duration(req.TTLHours) * time.Hour,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, statusCode(res.Status), shareEmailResponse{
			Status:    string(res.Status),
			URL:       res.URL,
			ExpiresAt: res.ExpiresAt,
		})
	}
}

type reminderJobRequest struct {
	WindowMinutes int `json:"window_minutes"`
}

func reminderJobHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reminderJobRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
		}
		window := 60 * time.Minute
		if req.WindowMinutes > 0 {
			window = time.Duration(req.WindowMinutes) * time.Minute
		}

		res, err := svc.SendReminderEmails(r.Context(), window)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func welcomeJobHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.SendWelcomeEmails(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type emailLogResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	ProviderID string    `json:"provider_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	RelatedID  string    `json:"related_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func listLogsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, err := svc.ListLogs(r.Context(), claims.UserID, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]emailLogResponse, 0, len(items))
		for _, l := range items {
			out = append(out, emailLogResponse{
				ID:         l.ID,
				Kind:       string(l.Kind),
				Recipient:  l.Recipient,
				Subject:    l.Subject,
				Status:     string(l.Status),
				ProviderID: l.ProviderID,
				Error:      l.Error,
				RelatedID:  l.RelatedID,
				CreatedAt:  l.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// requireJobToken: sin token configurado los jobs HTTP quedan deshabilitados.
func requireJobToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSONError(w, http.StatusServiceUnavailable, "job endpoints disabled")
				return
			}
			got := r.Header.Get(JobTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func statusCode(st LogStatus) int {
	if st == LogQueued {
		return http.StatusAccepted
	}
	return http.StatusOK
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, documents.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFeatureUnavailable):
		writeJSONError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, documents.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, documents.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrDeliveryFailed):
		logger.FromContext(r.Context(), nil).Warn("notify: delivery failed", map[string]any{"error": err.Error()})
		writeJSONError(w, http.StatusBadGateway, "email could not be delivered")
	default:
		logger.FromContext(r.Context(), nil).Error("notify: internal error", map[string]any{"error": err.Error()})
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
