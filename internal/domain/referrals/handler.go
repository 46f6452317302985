package referrals

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
	r.Get("/me/referral-code", getCodeHandler(svc))
	r.With(dedupe).Post("/referrals/redeem", redeemHandler(svc))
}

type codeResponse struct {
	Code      string    `json:"code"`
	Uses      int       `json:"uses"`
	CreatedAt time.Time `json:"created_at"`
}

type redeemRequest struct {
	Code string `json:"code" validate:"required"`
}

type redeemResponse struct {
	Code       string    `json:"code"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

func getCodeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		c, err := svc.GetOrCreate(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, codeResponse{Code: c.Code, Uses: c.Uses, CreatedAt: c.CreatedAt})
	}
}

// redeemHandler godoc
// @Summary Canjear código de referido
// @Tags referrals
// @Accept json
// @Produce json
// @Param payload body redeemRequest true "Código"
// @Success 200 {object} redeemResponse
// @Failure 400 {string} string "código propio / inválido"
// @Failure 404 {string} string "referral code not found"
// @Failure 409 {string} string "referral code already redeemed"
// @Router /referrals/redeem [post]
func redeemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req redeemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		red, err := svc.Redeem(r.Context(), claims.UserID, req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, redeemResponse{Code: red.Code, RedeemedAt: red.RedeemedAt})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrOwnCode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "referral code not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyRedeemed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.FromContext(r.Context(), nil).Error("referrals: internal error", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
