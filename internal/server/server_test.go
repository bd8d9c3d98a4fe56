package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		},
	}
}

// newTestServer builds a server backed by in-memory repositories.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(testConfig(), zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestTraceID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := traceID()
		if len(id) != traceIDLength {
			t.Fatalf("len = %d, want %d", len(id), traceIDLength)
		}
		for _, c := range id {
			if !strings.ContainsRune(traceIDCharset, c) {
				t.Fatalf("unexpected character %q in %q", c, id)
			}
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("trace ids are not random")
	}
}

func TestSuccessEnvelope(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/books", map[string]any{
		"title": "Dune",
		"stock": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["message"] != "Book created successfully" {
		t.Errorf("message = %v", body["message"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %v", body["data"])
	}
	if data["title"] != "Dune" {
		t.Errorf("data.title = %v", data["title"])
	}
	if data["id"] == "" || data["id"] == nil {
		t.Error("no id in response")
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/books/no-such-book", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ziyad_error_code"] != "NOT_FOUND" {
		t.Errorf("code = %v", body["ziyad_error_code"])
	}
	if body["message"] != "Book not found" {
		t.Errorf("message = %v", body["message"])
	}
	trace, _ := body["trace_id"].(string)
	if len(trace) != traceIDLength {
		t.Errorf("trace_id = %q", trace)
	}
	if _, ok := body["status"]; ok {
		t.Error("error envelope must not carry a status field")
	}
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ziyad_error_code"] != "VALIDATION_ERROR" {
		t.Errorf("code = %v", body["ziyad_error_code"])
	}
}

func TestUserEndpointsHidePassword(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/users", map[string]any{
		"email":    "A@B.com",
		"name":     "Ziyad",
		"password": "secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("password leaked: %s", rec.Body.String())
	}
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	if data["email"] != "a@b.com" {
		t.Errorf("email not normalized: %v", data["email"])
	}

	// Same address with different case and padding conflicts.
	rec = doJSON(t, h, http.MethodPost, "/users", map[string]any{
		"email":    " a@B.COM ",
		"password": "secret",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decodeBody(t, rec)["ziyad_error_code"]; got != "DUPLICATE_EMAIL" {
		t.Errorf("code = %v", got)
	}
}

func TestBorrowLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/books", map[string]any{"title": "Dune", "stock": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create book: %d %s", rec.Code, rec.Body.String())
	}
	bookID := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/users", map[string]any{"email": "a@b.com", "password": "pw"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: %d %s", rec.Code, rec.Body.String())
	}
	userID := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/borrows", map[string]any{"userId": userID, "bookId": bookID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create borrow: %d %s", rec.Code, rec.Body.String())
	}
	borrowID := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	// Stock hit zero, so another user is turned away.
	rec = doJSON(t, h, http.MethodPost, "/users", map[string]any{"email": "c@d.com", "password": "pw"})
	otherID := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)
	rec = doJSON(t, h, http.MethodPost, "/borrows", map[string]any{"userId": otherID, "bookId": bookID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["ziyad_error_code"]; got != "OUT_OF_STOCK" {
		t.Errorf("code = %v", got)
	}

	// The same user cannot hold a second open loan either.
	rec = doJSON(t, h, http.MethodPost, "/borrows", map[string]any{"userId": userID, "bookId": bookID})
	if got := decodeBody(t, rec)["ziyad_error_code"]; got != "USER_ALREADY_BORROWED" {
		t.Errorf("code = %v (status %d)", got, rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/borrows/%s/return", borrowID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("return: %d %s", rec.Code, rec.Body.String())
	}
	returned := decodeBody(t, rec)["data"].(map[string]any)
	if returned["returnDate"] == nil {
		t.Error("returnDate not set")
	}

	// Stock restored, loan can be granted again.
	rec = doJSON(t, h, http.MethodPost, "/borrows", map[string]any{"userId": otherID, "bookId": bookID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("borrow after return: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/borrows", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	borrows, ok := decodeBody(t, rec)["data"].([]any)
	if !ok || len(borrows) != 2 {
		t.Fatalf("borrows = %v", decodeBody(t, rec)["data"])
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/borrows/%s", borrowID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete borrow: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("204 response has a body: %s", rec.Body.String())
	}
}

func TestDeleteBookReturnsEnvelope(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/books", map[string]any{"title": "Dune"})
	id := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodDelete, "/books/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Book deleted successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if _, ok := body["data"]; !ok {
		t.Error("data field missing from envelope")
	}
}

func TestDeleteUserNoContent(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/users", map[string]any{"email": "a@b.com", "password": "pw"})
	id := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodDelete, "/users/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/users/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d after delete", rec.Code)
	}
}

func TestRecoveredPanicRendersErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ziyad_error_code"] != "UNKNOWN_ERROR" {
		t.Errorf("code = %v", body["ziyad_error_code"])
	}
	if body["message"] != "Internal Server Error" {
		t.Errorf("message = %v", body["message"])
	}
	trace, _ := body["trace_id"].(string)
	if len(trace) != traceIDLength {
		t.Errorf("trace_id = %q", trace)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
	// No external stores configured, so the server is trivially ready.
	rec = doJSON(t, h, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d", rec.Code)
	}
}
