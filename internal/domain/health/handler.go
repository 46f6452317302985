package health

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-records/internal/middleware"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/validation"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

const dateLayout = "2006-01-02"

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/health-records", func(hr chi.Router) {
		hr.Post("/", createRecordHandler(svc))
		hr.Get("/", listRecordsHandler(svc))
		hr.Delete("/{recordID}", deleteRecordHandler(svc))
	})
	r.Route("/pets/{petID}/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))
		mr.Patch("/{medicationID}", updateMedicationHandler(svc))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc))
	})
	r.Route("/pets/{petID}/vaccinations", func(vr chi.Router) {
		vr.Post("/", createVaccinationHandler(svc))
		vr.Get("/", listVaccinationsHandler(svc))
		vr.Delete("/{vaccinationID}", deleteVaccinationHandler(svc))
	})
}

// createRecordRequest es el cuerpo para registrar una entrada del historial.
type createRecordRequest struct {
	Type        string `json:"type" validate:"required" enums:"checkup,vaccination,surgery,illness,injury,lab_result,other"`
	OccurredOn  string `json:"occurred_on" validate:"required,ymd"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	VetName     string `json:"vet_name" validate:"max=200"`
}

type recordResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	Type        RecordType `json:"type"`
	OccurredOn  string     `json:"occurred_on"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VetName     string     `json:"vet_name"`
	RecordedBy  string     `json:"recorded_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

type createMedicationRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Dosage    string `json:"dosage" validate:"max=50"`
	DoseUnit  string `json:"dose_unit" validate:"max=20"`
	Frequency string `json:"frequency" validate:"max=100"`
	StartDate string `json:"start_date" validate:"required,ymd"`
	EndDate   string `json:"end_date" validate:"ymd"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type updateMedicationRequest struct {
	Dosage    *string         `json:"dosage"`
	DoseUnit  *string         `json:"dose_unit"`
	Frequency *string         `json:"frequency"`
	Notes     *string         `json:"notes"`
	EndDate   json.RawMessage `json:"end_date"` // null limpia
}

type medicationResponse struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	DoseUnit  string    `json:"dose_unit"`
	Frequency string    `json:"frequency"`
	StartDate string    `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Active    bool      `json:"active"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createVaccinationRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	AdministeredOn string `json:"administered_on" validate:"required,ymd"`
	NextDueOn      string `json:"next_due_on" validate:"ymd"`
	VetName        string `json:"vet_name" validate:"max=200"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type vaccinationResponse struct {
	ID             string    `json:"id"`
	PetID          string    `json:"pet_id"`
	Name           string    `json:"name"`
	AdministeredOn string    `json:"administered_on"`
	NextDueOn      *string   `json:"next_due_on"`
	VetName        string    `json:"vet_name"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// createRecordHandler godoc
// @Summary Crear registro de salud
// @Description Solo el dueño de la mascota. occurred_on en formato YYYY-MM-DD.
// @Tags health
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Registro"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health-records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		on, _ := time.Parse(dateLayout, req.OccurredOn)

		rec, err := svc.CreateRecord(r.Context(), chi.URLParam(r, "petID"), claims.UserID, CreateRecordInput{
			Type:        RecordType(strings.ToLower(strings.TrimSpace(req.Type))),
			OccurredOn:  on,
			Title:       req.Title,
			Description: req.Description,
			VetName:     req.VetName,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar registros de salud
// @Tags health
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: checkup,surgery)"
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Param q query string false "Texto libre en título/descripción"
// @Success 200 {array} recordResponse
// @Router /pets/{petID}/health-records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseRecordFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListRecords(r.Context(), chi.URLParam(r, "petID"), claims.UserID, filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.DeleteRecord(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start, _ := time.Parse(dateLayout, req.StartDate)

		m, err := svc.CreateMedication(r.Context(), chi.URLParam(r, "petID"), claims.UserID, CreateMedicationInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			DoseUnit:  req.DoseUnit,
			Frequency: req.Frequency,
			StartDate: start,
			EndDate:   optionalDate(req.EndDate),
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicationResponse(svc.now(), m))
	}
}

// listMedicationsHandler: ?active=true devuelve solo tratamientos vigentes.
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		activeOnly := false
		if v := strings.TrimSpace(r.URL.Query().Get("active")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "active must be true or false", http.StatusBadRequest)
				return
			}
			activeOnly = b
		}

		items, err := svc.ListMedications(r.Context(), chi.URLParam(r, "petID"), claims.UserID, activeOnly)
		if err != nil {
			writeError(w, r, err)
			return
		}
		now := svc.now()
		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(now, m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateMedicationRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateMedicationInput{
			Dosage:    req.Dosage,
			DoseUnit:  req.DoseUnit,
			Frequency: req.Frequency,
			Notes:     req.Notes,
		}
		switch {
		case len(req.EndDate) == 0:
		case string(req.EndDate) == "null":
			in.ClearEnd = true
		default:
			var s string
			if err := json.Unmarshal(req.EndDate, &s); err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
				return
			}
			t, err := time.Parse(dateLayout, strings.TrimSpace(s))
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
				return
			}
			in.EndDate = &t
		}

		m, err := svc.UpdateMedication(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "medicationID"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(svc.now(), m))
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.DeleteMedication(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "medicationID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createVaccinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		given, _ := time.Parse(dateLayout, req.AdministeredOn)

		v, err := svc.CreateVaccination(r.Context(), chi.URLParam(r, "petID"), claims.UserID, CreateVaccinationInput{
			Name:           req.Name,
			AdministeredOn: given,
			NextDueOn:      optionalDate(req.NextDueOn),
			VetName:        req.VetName,
			Notes:          req.Notes,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toVaccinationResponse(v))
	}
}

// listVaccinationsHandler godoc
// @Summary Listar vacunas
// @Tags health
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param due_within_days query int false "Solo las que vencen en los próximos N días (incluye vencidas)"
// @Success 200 {array} vaccinationResponse
// @Router /pets/{petID}/vaccinations [get]
func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		days := -1
		if v := strings.TrimSpace(r.URL.Query().Get("due_within_days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 3650 {
				http.Error(w, "due_within_days must be between 0 and 3650", http.StatusBadRequest)
				return
			}
			days = n
		}

		items, err := svc.ListVaccinations(r.Context(), chi.URLParam(r, "petID"), claims.UserID, days)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]vaccinationResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toVaccinationResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.DeleteVaccination(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "vaccinationID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseRecordFilter(r *http.Request) (RecordFilter, error) {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	filter := RecordFilter{Limit: limit}

	// types=checkup,surgery
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if t := RecordType(strings.ToLower(strings.TrimSpace(p))); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return RecordFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return RecordFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, nil
}

func optionalDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toRecordResponse(rec HealthRecord) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		PetID:       rec.PetID,
		Type:        rec.Type,
		OccurredOn:  rec.OccurredOn.Format(dateLayout),
		Title:       rec.Title,
		Description: rec.Description,
		VetName:     rec.VetName,
		RecordedBy:  rec.RecordedBy,
		CreatedAt:   rec.CreatedAt,
	}
}

func toMedicationResponse(now time.Time, m Medication) medicationResponse {
	return medicationResponse{
		ID:        m.ID,
		PetID:     m.PetID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		DoseUnit:  m.DoseUnit,
		Frequency: m.Frequency,
		StartDate: m.StartDate.Format(dateLayout),
		EndDate:   formatDate(m.EndDate),
		Active:    m.Active(now),
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toVaccinationResponse(v Vaccination) vaccinationResponse {
	return vaccinationResponse{
		ID:             v.ID,
		PetID:          v.PetID,
		Name:           v.Name,
		AdministeredOn: v.AdministeredOn.Format(dateLayout),
		NextDueOn:      formatDate(v.NextDueOn),
		VetName:        v.VetName,
		Notes:          v.Notes,
		CreatedAt:      v.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		logger.FromContext(r.Context(), nil).Error("health: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
