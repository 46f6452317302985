package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-records/internal/router"
)

func TestHTTP_PetLifecycle_CascadesOnDelete(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{DedupTTL: time.Millisecond}))
	defer ts.Close()

	ownerID := "owner-1"

	// 1) Owner crea mascota
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"breed":   "mixed",
		"sex":     "male",
	})

	// 2) Recordatorio, documento e historial asociados
	reminderID := createResource(t, ts.URL, ownerID, "/reminders", map[string]any{
		"title":   "Antiparasitario",
		"date":    "2025-01-10",
		"pet_ids": []string{petID},
	})
	documentID := createResource(t, ts.URL, ownerID, "/documents", map[string]any{
		"name":     "Carnet",
		"category": "vaccination",
		"pet_id":   petID,
		"file_url": "https://files.example.com/carnet.pdf",
	})
	createResource(t, ts.URL, ownerID, "/pets/"+petID+"/health-records", map[string]any{
		"type":        "checkup",
		"occurred_on": "2025-01-02",
		"title":       "Control anual",
	})

	// 3) Otro usuario no ve la mascota
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, "intruder", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-owner, got %d", st)
		}
	}

	// 4) Borrar una mascota activa no está permitido
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+petID, ownerID, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 deleting active pet, got %d body=%s", st, string(body))
		}
	}

	// 5) Archivar la mueve a la lista de archivadas
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/archive", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 archive, got %d body=%s", st, string(body))
		}
		if n := countList(t, ts.URL, ownerID, "/pets?status=archived"); n != 1 {
			t.Fatalf("expected 1 archived pet, got %d", n)
		}
		if n := countList(t, ts.URL, ownerID, "/pets"); n != 0 {
			t.Fatalf("expected 0 active pets, got %d", n)
		}
	}

	// 6) Borrado definitivo (espera a que expire la key de dedup del intento anterior)
	{
		time.Sleep(10 * time.Millisecond)
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+petID, ownerID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "GET", "/pets/"+petID, ownerID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}

	// 7) Los hooks limpiaron vínculos
	{
		st, body := doReq(t, ts.URL, "GET", "/reminders/"+reminderID, ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get reminder, got %d body=%s", st, string(body))
		}
		var rem struct {
			PetIDs []string `json:"pet_ids"`
		}
		mustDecode(t, body, &rem)
		if len(rem.PetIDs) != 0 {
			t.Fatalf("expected reminder detached from pet, got %v", rem.PetIDs)
		}

		st, body = doReq(t, ts.URL, "GET", "/documents/"+documentID, ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get document, got %d body=%s", st, string(body))
		}
		var doc struct {
			PetID *string `json:"pet_id"`
		}
		mustDecode(t, body, &doc)
		if doc.PetID != nil {
			t.Fatalf("expected document pet_id null, got %v", *doc.PetID)
		}
	}
}

func TestHTTP_DuplicateMutationIsRejected(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{DedupTTL: time.Minute}))
	defer ts.Close()

	petID := createPet(t, ts.URL, "u1", map[string]any{"name": "Luna", "species": "cat"})

	st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/archive", "u1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 first archive, got %d", st)
	}
	st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/archive", "u1", nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate, got %d body=%s", st, string(body))
	}

	// otro usuario no comparte la key
	st, _ = doReq(t, ts.URL, "POST", "/pets/"+petID+"/archive", "u2", nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for other user, got %d", st)
	}
}

func TestHTTP_SharedDocumentIsPublic(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	documentID := createResource(t, ts.URL, "u1", "/documents", map[string]any{
		"name":     "Análisis",
		"file_url": "https://files.example.com/a.pdf",
	})

	st, body := doReq(t, ts.URL, "POST", "/documents/"+documentID+"/share", "u1", map[string]any{"ttl_hours": 48})
	if st != http.StatusOK {
		t.Fatalf("expected 200 share, got %d body=%s", st, string(body))
	}
	var shared struct {
		ShareToken string `json:"share_token"`
	}
	mustDecode(t, body, &shared)
	if shared.ShareToken == "" {
		t.Fatalf("expected share token")
	}

	st, body = doReq(t, ts.URL, "GET", "/shared/"+shared.ShareToken, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 shared doc, got %d body=%s", st, string(body))
	}
	var pub struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	mustDecode(t, body, &pub)
	if pub.Name != "Análisis" || pub.URL != "https://files.example.com/a.pdf" {
		t.Fatalf("unexpected shared doc: %+v", pub)
	}

	st, _ = doReq(t, ts.URL, "GET", "/shared/not-a-token", "", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown token, got %d", st)
	}
}

func TestHTTP_RequiresAuth(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	for _, path := range []string{"/pets", "/reminders", "/documents", "/me/preferences", "/me/referral-code"} {
		st, _ := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d", path, st)
		}
	}
}

func TestHTTP_HealthMetricsAndCORS(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{CORSOrigins: []string{"https://app.example.com"}}))
	defer ts.Close()

	if st, body := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "GET", "/metrics", "", nil); st != http.StatusOK {
		t.Fatalf("metrics: %d", st)
	}

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/pets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected CORS allow origin, got %q", got)
	}
}

func TestHTTP_ContactIsRateLimited(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{ContactRate: 1, ContactWindow: time.Minute}))
	defer ts.Close()

	msg := map[string]any{"name": "Ana", "email": "ana@example.com", "message": "hola"}
	st, body := doReq(t, ts.URL, "POST", "/contact", "", msg)
	if st != http.StatusOK {
		t.Fatalf("expected 200 contact, got %d body=%s", st, string(body))
	}
	st, _ = doReq(t, ts.URL, "POST", "/contact", "", msg)
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()
	return createResource(t, baseURL, userID, "/pets", payload)
}

func createResource(t *testing.T, baseURL, userID, path string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d body=%s", path, st, string(body))
	}

	var out struct {
		ID string `json:"id"`
	}
	mustDecode(t, body, &out)
	if out.ID == "" {
		t.Fatalf("POST %s: missing id", path)
	}
	return out.ID
}

func countList(t *testing.T, baseURL, userID, path string) int {
	t.Helper()
	st, body := doReq(t, baseURL, "GET", path, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d body=%s", path, st, string(body))
	}
	var items []json.RawMessage
	mustDecode(t, body, &items)
	return len(items)
}

func mustDecode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
