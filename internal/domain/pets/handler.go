package pets

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

// RegisterRoutes monta /pets. dedupe envuelve las mutaciones de ciclo de vida
// (archive/restore/delete) para cortar clicks repetidos.
func RegisterRoutes(r chi.Router, svc *Service, dedupe func(http.Handler) http.Handler) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))

		pr.With(dedupe).Post("/{petID}/archive", archivePetHandler(svc))
		pr.With(dedupe).Post("/{petID}/restore", restorePetHandler(svc))
		pr.With(dedupe).Delete("/{petID}", deletePetHandler(svc))
	})
}

type createPetRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Species      string `json:"species" validate:"required"`
	Breed        string `json:"breed" validate:"max=100"`
	Sex          string `json:"sex"`
	BirthDate    string `json:"birth_date" validate:"ymd"`    // YYYY-MM-DD opcional
	AdoptionDate string `json:"adoption_date" validate:"ymd"` // YYYY-MM-DD opcional
	Microchip    string `json:"microchip" validate:"max=64"`
	PhotoURL     string `json:"photo_url" validate:"omitempty,url"`
	Notes        string `json:"notes" validate:"max=2000"`
}

type petResponse struct {
	ID           string     `json:"id"`
	OwnerUserID  string     `json:"owner_user_id"`
	Name         string     `json:"name"`
	Species      Species    `json:"species"`
	Breed        string     `json:"breed"`
	Sex          Sex        `json:"sex"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	AdoptionDate *time.Time `json:"adoption_date,omitempty"`
	Microchip    string     `json:"microchip"`
	PhotoURL     string     `json:"photo_url"`
	Notes        string     `json:"notes"`
	Archived     bool       `json:"archived"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type updatePetRequest struct {
	Name      *string `json:"name"`
	Species   *string `json:"species"`
	Breed     *string `json:"breed"`
	Sex       *string `json:"sex"`
	Microchip *string `json:"microchip"`
	PhotoURL  *string `json:"photo_url"`
	Notes     *string `json:"notes"`

	// birth_date / adoption_date se leen aparte para distinguir null de ausente.
	BirthDate    json.RawMessage `json:"birth_date"`
	AdoptionDate json.RawMessage `json:"adoption_date"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Crea una mascota para el usuario autenticado. Fechas en formato YYYY-MM-DD.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:         req.Name,
			Species:      Species(strings.ToLower(strings.TrimSpace(req.Species))),
			Breed:        req.Breed,
			Sex:          Sex(strings.ToLower(strings.TrimSpace(req.Sex))),
			BirthDate:    parseOptionalDate(req.BirthDate),
			AdoptionDate: parseOptionalDate(req.AdoptionDate),
			Microchip:    req.Microchip,
			PhotoURL:     req.PhotoURL,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Tags pets
// @Produce json
// @Param status query string false "active (default) | archived | all"
// @Success 200 {array} petResponse
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		status, ok := ParseStatus(r.URL.Query().Get("status"))
		if !ok {
			http.Error(w, "status must be active, archived or all", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID, status)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetOwned(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, err := patchDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
			return
		}
		ad, err := patchDate(req.AdoptionDate)
		if err != nil {
			http.Error(w, "adoption_date must be YYYY-MM-DD or null", http.StatusBadRequest)
			return
		}

		in := UpdateProfileInput{
			Name:         req.Name,
			Breed:        req.Breed,
			Microchip:    req.Microchip,
			PhotoURL:     req.PhotoURL,
			Notes:        req.Notes,
			BirthDate:    bd,
			AdoptionDate: ad,
		}
		if req.Species != nil {
			sp := Species(strings.ToLower(strings.TrimSpace(*req.Species)))
			in.Species = &sp
		}
		if req.Sex != nil {
			sx := Sex(strings.ToLower(strings.TrimSpace(*req.Sex)))
			in.Sex = &sx
		}

		updated, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "petID"), claims.UserID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// archivePetHandler godoc
// @Summary Archivar mascota
// @Description Soft delete: la mascota pasa a la lista de archivadas. Idempotente.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "duplicate request"
// @Router /pets/{petID}/archive [post]
func archivePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Archive(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func restorePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Restore(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota definitivamente
// @Description Solo mascotas archivadas. Borra historial de salud y vínculos con recordatorios; los documentos quedan sin mascota.
// @Tags pets
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 409 {string} string "pet must be archived before permanent deletion"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseOptionalDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// ya validado con el tag ymd
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// patchDate: ausente => no tocar; null => limpiar; "YYYY-MM-DD" => setear.
func patchDate(raw json.RawMessage) (OptionalDate, error) {
	if len(raw) == 0 {
		return OptionalDate{}, nil
	}
	if string(raw) == "null" {
		return OptionalDate{Present: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return OptionalDate{}, err
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return OptionalDate{}, err
	}
	return OptionalDate{Present: true, Value: &t}, nil
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		Sex:          p.Sex,
		BirthDate:    p.BirthDate,
		AdoptionDate: p.AdoptionDate,
		Microchip:    p.Microchip,
		PhotoURL:     p.PhotoURL,
		Notes:        p.Notes,
		Archived:     p.Archived,
		ArchivedAt:   p.ArchivedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotArchived):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.FromContext(r.Context(), nil).Error("pets: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
