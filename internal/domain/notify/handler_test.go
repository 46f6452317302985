package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pet-records/internal/domain/documents"
	"pet-records/internal/domain/notify"
	"pet-records/internal/middleware"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(svc *notify.Service, jobToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	notify.RegisterRoutes(r, svc, passthrough, jobToken, passthrough)
	r.Route("/documents", notify.ShareEmailRoute(svc, passthrough))
	return r
}

func do(h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestContactHandler(t *testing.T) {
	e := newEnv(t, nil)
	h := newRouter(e.svc, "")

	rec := do(h, http.MethodPost, "/contact", `{"name":"Ana","email":"ana@example.com","message":"hola"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"sent"}`, rec.Body.String())

	e.sender.err = providerErr{transient: true}
	rec = do(h, http.MethodPost, "/contact", `{"name":"Ana","email":"ana@example.com","message":"hola"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"queued"}`, rec.Body.String())

	e.sender.err = providerErr{transient: false}
	rec = do(h, http.MethodPost, "/contact", `{"name":"Ana","email":"ana@example.com","message":"hola"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(h, http.MethodPost, "/contact", `{"name":"Ana","email":"not-an-email","message":"hola"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsRequireToken(t *testing.T) {
	e := newEnv(t, nil)

	rec := do(newRouter(e.svc, ""), http.MethodPost, "/jobs/welcome-emails", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := newRouter(e.svc, "s3cret")
	rec = do(h, http.MethodPost, "/jobs/welcome-emails", "", map[string]string{notify.JobTokenHeader: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := e.prefs.Get(context.Background(), "u1", "u1@example.com")
	require.NoError(t, err)

	rec = do(h, http.MethodPost, "/jobs/welcome-emails", "", map[string]string{notify.JobTokenHeader: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res notify.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, notify.BatchResult{Processed: 1, Sent: 1}, res)

	rec = do(h, http.MethodPost, "/jobs/reminder-emails", `{"window_minutes":30}`, map[string]string{notify.JobTokenHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShareEmailHandler(t *testing.T) {
	ctx := context.Background()
	user := map[string]string{"X-Debug-User-ID": "u1", "X-Debug-User-Email": "owner@example.com"}

	t.Run("unauthenticated", func(t *testing.T) {
		e := newEnv(t, fixedCaps{allow: true})
		rec := do(newRouter(e.svc, ""), http.MethodPost, "/documents/d1/share/email", `{"recipient_email":"vet@example.com"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("plan without feature", func(t *testing.T) {
		e := newEnv(t, fixedCaps{allow: false})
		rec := do(newRouter(e.svc, ""), http.MethodPost, "/documents/d1/share/email", `{"recipient_email":"vet@example.com"}`, user)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("sent", func(t *testing.T) {
		e := newEnv(t, fixedCaps{allow: true})
		doc, err := e.docs.Create(ctx, "u1", documents.CreateInput{Name: "Análisis", FileURL: "https://files.example.com/a.pdf"})
		require.NoError(t, err)

		rec := do(newRouter(e.svc, ""), http.MethodPost, "/documents/"+doc.ID+"/share/email", `{"recipient_email":"vet@example.com","ttl_hours":24}`, user)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Status string `json:"status"`
			URL    string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "sent", body.Status)
		assert.Contains(t, body.URL, "/shared/")
	})

	t.Run("unknown document", func(t *testing.T) {
		e := newEnv(t, fixedCaps{allow: true})
		rec := do(newRouter(e.svc, ""), http.MethodPost, "/documents/missing/share/email", `{"recipient_email":"vet@example.com"}`, user)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListLogsHandler(t *testing.T) {
	e := newEnv(t, nil)
	h := newRouter(e.svc, "")

	rec := do(h, http.MethodGet, "/me/email-logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/me/email-logs", "", map[string]string{"X-Debug-User-ID": "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
