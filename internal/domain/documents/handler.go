package documents

import (
	"errors"
	"io"
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

// RegisterRoutes monta /documents y el endpoint público /shared/{token}.
// extra permite que otros módulos cuelguen rutas bajo /documents.
func RegisterRoutes(r chi.Router, svc *Service, dedupe func(http.Handler) http.Handler, extra ...func(chi.Router)) {
	r.Route("/documents", func(dr chi.Router) {
		dr.Post("/", createDocumentHandler(svc))
		dr.Get("/", listDocumentsHandler(svc))
		dr.Post("/upload", uploadDocumentHandler(svc))

		dr.Get("/{documentID}", getDocumentHandler(svc))
		dr.Patch("/{documentID}", updateDocumentHandler(svc))
		dr.Get("/{documentID}/download", downloadDocumentHandler(svc))
		dr.Post("/{documentID}/favorite", favoriteDocumentHandler(svc))

		dr.With(dedupe).Post("/{documentID}/archive", archiveDocumentHandler(svc))
		dr.With(dedupe).Post("/{documentID}/restore", restoreDocumentHandler(svc))
		dr.With(dedupe).Delete("/{documentID}", deleteDocumentHandler(svc))

		dr.With(dedupe).Post("/{documentID}/share", shareDocumentHandler(svc))
		dr.With(dedupe).Delete("/{documentID}/share", revokeShareHandler(svc))

		for _, fn := range extra {
			fn(dr)
		}
	})

	r.Get("/shared/{token}", sharedDocumentHandler(svc))
}

type createDocumentRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category"`
	PetID    string `json:"pet_id"`
	FileURL  string `json:"file_url" validate:"required,url"`
}

type updateDocumentRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	PetID    *string `json:"pet_id"`
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

type shareRequest struct {
	TTLHours int `json:"ttl_hours" validate:"min=0"`
}

type documentResponse struct {
	ID             string     `json:"id"`
	OwnerUserID    string     `json:"owner_user_id"`
	PetID          *string    `json:"pet_id"`
	Name           string     `json:"name"`
	Category       Category   `json:"category"`
	FileURL        string     `json:"file_url,omitempty"`
	Stored         bool       `json:"stored"`
	ContentType    string     `json:"content_type,omitempty"`
	SizeBytes      int64      `json:"size_bytes,omitempty"`
	Favorite       bool       `json:"favorite"`
	Archived       bool       `json:"archived"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	ShareToken     string     `json:"share_token,omitempty"`
	ShareExpiresAt *time.Time `json:"share_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type sharedDocumentResponse struct {
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// createDocumentHandler godoc
// @Summary Registrar documento con link externo
// @Tags documents
// @Accept json
// @Produce json
// @Param payload body createDocumentRequest true "Metadatos del documento"
// @Success 201 {object} documentResponse
// @Failure 400 {string} string "invalid json / validación"
// @Router /documents [post]
func createDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		d, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:     req.Name,
			Category: Category(strings.ToLower(strings.TrimSpace(req.Category))),
			PetID:    req.PetID,
			FileURL:  req.FileURL,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// uploadDocumentHandler godoc
// @Summary Subir archivo
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Archivo"
// @Param name formData string false "Nombre (default: nombre del archivo)"
// @Param category formData string false "Categoría (default: other)"
// @Param pet_id formData string false "Mascota asociada"
// @Success 201 {object} documentResponse
// @Failure 413 {string} string "file too large"
// @Router /documents/upload [post]
func uploadDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// margen de 1MB para los campos del form
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxUploadBytes()+(1<<20))
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				http.Error(w, ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		d, err := svc.Upload(r.Context(), claims.UserID, UploadInput{
			Name:        r.FormValue("name"),
			Category:    Category(strings.ToLower(strings.TrimSpace(r.FormValue("category")))),
			PetID:       r.FormValue("pet_id"),
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// listDocumentsHandler godoc
// @Summary Listar documentos
// @Tags documents
// @Produce json
// @Param status query string false "active (default) | archived | all"
// @Param category query string false "Categoría"
// @Param pet_id query string false "Mascota"
// @Param favorite query bool false "Solo favoritos / no favoritos"
// @Success 200 {array} documentResponse
// @Router /documents [get]
func listDocumentsHandler(svc *Service) http.HandlerFunc {
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
		f := ListFilter{
			Status:   status,
			Category: Category(strings.ToLower(strings.TrimSpace(q.Get("category")))),
			PetID:    strings.TrimSpace(q.Get("pet_id")),
		}
		if raw := strings.TrimSpace(q.Get("favorite")); raw != "" {
			fav, err := strconv.ParseBool(raw)
			if err != nil {
				http.Error(w, "favorite must be true or false", http.StatusBadRequest)
				return
			}
			f.Favorite = &fav
		}

		items, err := svc.List(r.Context(), claims.UserID, f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]documentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDocumentResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.GetOwned(r.Context(), chi.URLParam(r, "documentID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func updateDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateDocumentRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{Name: req.Name, PetID: req.PetID}
		if req.Category != nil {
			c := Category(strings.ToLower(strings.TrimSpace(*req.Category)))
			in.Category = &c
		}

		d, err := svc.Update(r.Context(), chi.URLParam(r, "documentID"), claims.UserID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

// favoriteDocumentHandler: body {"favorite": bool}; sin body alterna el valor.
func favoriteDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id := chi.URLParam(r, "documentID")

		var req favoriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Favorite == nil {
			cur, err := svc.GetOwned(r.Context(), id, claims.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			toggled := !cur.Favorite
			req.Favorite = &toggled
		}

		d, err := svc.SetFavorite(r.Context(), id, claims.UserID, *req.Favorite)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func archiveDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		d, err := svc.Archive(r.Context(), chi.URLParam(r, "documentID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func restoreDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		d, err := svc.Restore(r.Context(), chi.URLParam(r, "documentID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func deleteDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Delete(r.Context(), chi.URLParam(r, "documentID"), claims.UserID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func downloadDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		u, err := svc.DownloadURL(r.Context(), chi.URLParam(r, "documentID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": u})
	}
}

// shareDocumentHandler godoc
// @Summary Crear link compartido
// @Description Genera un token nuevo (rota el anterior). ttl_hours 0 = default.
// @Tags documents
// @Accept json
// @Produce json
// @Param documentID path string true "ID del documento"
// @Param payload body shareRequest false "TTL en horas"
// @Success 200 {object} documentResponse
// @Router /documents/{documentID}/share [post]
func shareDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req shareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		d, err := svc.Share(r.Context(), chi.URLParam(r, "documentID"), claims.UserID, time.Duration(req.TTLHours)*time.Hour)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func revokeShareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := svc.RevokeShare(r.Context(), chi.URLParam(r, "documentID"), claims.UserID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// sharedDocumentHandler godoc
// @Summary Ver documento compartido
// @Description Público. 404 si el token no existe, 410 si venció.
// @Tags documents
// @Produce json
// @Param token path string true "Token compartido"
// @Success 200 {object} sharedDocumentResponse
// @Failure 404 {string} string "document not found"
// @Failure 410 {string} string "share link expired"
// @Router /shared/{token} [get]
func sharedDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, u, err := svc.ResolveShared(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sharedDocumentResponse{
			Name:        d.Name,
			Category:    d.Category,
			ContentType: d.ContentType,
			SizeBytes:   d.SizeBytes,
			URL:         u,
			ExpiresAt:   *d.ShareExpiresAt,
		})
	}
}

func toDocumentResponse(d Document) documentResponse {
	var petID *string
	if d.PetID != "" {
		p := d.PetID
		petID = &p
	}
	return documentResponse{
		ID:             d.ID,
		OwnerUserID:    d.OwnerUserID,
		PetID:          petID,
		Name:           d.Name,
		Category:       d.Category,
		FileURL:        d.FileURL,
		Stored:         d.StorageKey != "",
		ContentType:    d.ContentType,
		SizeBytes:      d.SizeBytes,
		Favorite:       d.Favorite,
		Archived:       d.Archived,
		ArchivedAt:     d.ArchivedAt,
		ShareToken:     d.ShareToken,
		ShareExpiresAt: d.ShareExpiresAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotArchived):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrShareExpired):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		logger.FromContext(r.Context(), nil).Error("documents: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
