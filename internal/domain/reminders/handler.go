package reminders

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-records/internal/middleware"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/validation"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

func RegisterRoutes(r chi.Router, svc *Service, dedupe func(http.Handler) http.Handler) {
	r.Route("/reminders", func(rr chi.Router) {
		rr.Post("/", createReminderHandler(svc))
		rr.Get("/", listRemindersHandler(svc))
		rr.Get("/summary", summaryHandler(svc))

		rr.Get("/{reminderID}", getReminderHandler(svc))
		rr.Patch("/{reminderID}", updateReminderHandler(svc))

		rr.With(dedupe).Post("/{reminderID}/archive", archiveReminderHandler(svc))
		rr.With(dedupe).Post("/{reminderID}/restore", restoreReminderHandler(svc))
		rr.With(dedupe).Delete("/{reminderID}", deleteReminderHandler(svc))
	})
}

type createReminderRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Date       string   `json:"date" validate:"required,ymd"`
	CustomTime string   `json:"custom_time" validate:"hhmm"`
	Notes      string   `json:"notes" validate:"max=2000"`
	PetIDs     []string `json:"pet_ids"`
}

type updateReminderRequest struct {
	Title      *string   `json:"title"`
	Date       *string   `json:"date"`
	CustomTime *string   `json:"custom_time"`
	Notes      *string   `json:"notes"`
	PetIDs     *[]string `json:"pet_ids"`
}

type reminderResponse struct {
	ID                 string     `json:"id"`
	OwnerUserID        string     `json:"owner_user_id"`
	Title              string     `json:"title"`
	Date               string     `json:"date"`
	CustomTime         string     `json:"custom_time,omitempty"`
	Notes              string     `json:"notes"`
	PetIDs             []string   `json:"pet_ids"`
	Category           Category   `json:"category"`
	Archived           bool       `json:"archived"`
	ArchivedAt         *time.Time `json:"archived_at,omitempty"`
	NotificationSent   bool       `json:"notification_sent"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type summaryResponse struct {
	Overdue  int `json:"overdue"`
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
	Archived int `json:"archived"`
}

// createReminderHandler godoc
// @Summary Crear recordatorio
// @Tags reminders
// @Accept json
// @Produce json
// @Param payload body createReminderRequest true "date YYYY-MM-DD, custom_time HH:MM opcional"
// @Success 201 {object} reminderResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 403 {string} string "forbidden"
// @Router /reminders [post]
func createReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		date, _ := time.Parse("2006-01-02", strings.TrimSpace(req.Date))

		rem, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Title:      req.Title,
			Date:       date,
			CustomTime: req.CustomTime,
			Notes:      req.Notes,
			PetIDs:     req.PetIDs,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReminderResponse(svc.now(), rem))
	}
}

// listRemindersHandler godoc
// @Summary Listar recordatorios
// @Tags reminders
// @Produce json
// @Param status query string false "active (default) | archived | all"
// @Param category query string false "overdue | today | upcoming"
// @Param pet_id query string false "Filtrar por mascota"
// @Success 200 {array} reminderResponse
// @Router /reminders [get]
func listRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		status, ok := ParseStatus(q.Get("status"))
		if !ok {
			http.Error(w, "status must be active, archived or all", http.StatusBadRequest)
			return
		}
		in := ListInput{Status: status, PetID: strings.TrimSpace(q.Get("pet_id"))}
		if raw := strings.TrimSpace(q.Get("category")); raw != "" {
			c, ok := ParseCategory(raw)
			if !ok {
				http.Error(w, "category must be overdue, today or upcoming", http.StatusBadRequest)
				return
			}
			in.Category = c
		}

		items, err := svc.List(r.Context(), claims.UserID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}

		now := svc.now()
		out := make([]reminderResponse, 0, len(items))
		for _, rem := range items {
			out = append(out, toReminderResponse(now, rem))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sum, err := svc.Summary(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summaryResponse{
			Overdue:  sum.Overdue,
			Today:    sum.Today,
			Upcoming: sum.Upcoming,
			Archived: sum.Archived,
		})
	}
}

func getReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rem, err := svc.GetOwned(r.Context(), chi.URLParam(r, "reminderID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc.now(), rem))
	}
}

func updateReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateReminderRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Title:      req.Title,
			CustomTime: req.CustomTime,
			Notes:      req.Notes,
			PetIDs:     req.PetIDs,
		}
		if req.Date != nil {
			d, err := time.Parse("2006-01-02", strings.TrimSpace(*req.Date))
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.Date = &d
		}

		rem, err := svc.Update(r.Context(), chi.URLParam(r, "reminderID"), claims.UserID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc.now(), rem))
	}
}

func archiveReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rem, err := svc.Archive(r.Context(), chi.URLParam(r, "reminderID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc.now(), rem))
	}
}

func restoreReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rem, err := svc.Restore(r.Context(), chi.URLParam(r, "reminderID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc.now(), rem))
	}
}

func deleteReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "reminderID"), claims.UserID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toReminderResponse(now time.Time, rem Reminder) reminderResponse {
	petIDs := rem.PetIDs
	if petIDs == nil {
		petIDs = []string{}
	}
	return reminderResponse{
		ID:                 rem.ID,
		OwnerUserID:        rem.OwnerUserID,
		Title:              rem.Title,
		Date:               rem.Date.Format("2006-01-02"),
		CustomTime:         rem.CustomTime,
		Notes:              rem.Notes,
		PetIDs:             petIDs,
		Category:           Categorize(now, rem),
		Archived:           rem.Archived,
		ArchivedAt:         rem.ArchivedAt,
		NotificationSent:   rem.NotificationSent,
		NotificationSentAt: rem.NotificationSentAt,
		CreatedAt:          rem.CreatedAt,
		UpdatedAt:          rem.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "reminder not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotArchived):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.FromContext(r.Context(), nil).Error("reminders: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
