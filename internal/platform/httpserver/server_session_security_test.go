package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionRoutesRequireRequestID(t *testing.T) {
	server := newTestServer()

	rr := doJSON(server, http.MethodPost, "/api/auth/v1/register", map[string]string{"email": "a@example.com"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Even the rejection carries a correlation id so the error is traceable.
	var envelope struct {
		Error struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	mustDecode(t, rr.Body.Bytes(), &envelope)
	if envelope.Error.RequestID == "" {
		t.Fatal("missing-header rejection must carry a generated request_id")
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing-header rejection must echo the generated id")
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	server := newTestServer()

	weak := map[string]string{
		"email":      uniqueEmail("weak"),
		"password":   "short",
		"first_name": "Test",
		"last_name":  "User",
		"role":       "recruiter",
	}
	rr := doJSON(server, http.MethodPost, "/api/auth/v1/register", weak, map[string]string{"X-Request-Id": "req-weak-1"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}

	badRole := map[string]string{
		"email":      uniqueEmail("badrole"),
		"password":   "correct-horse-battery",
		"first_name": "Test",
		"last_name":  "User",
		"role":       "superuser",
	}
	rr = doJSON(server, http.MethodPost, "/api/auth/v1/register", badRole, map[string]string{"X-Request-Id": "req-badrole-1"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown role: expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	server := newTestServer()
	email := uniqueEmail("login")
	registerTenantUser(t, server, email, "recruiter", "org-1")

	rr := doJSON(server, http.MethodPost, "/api/auth/v1/login", map[string]string{
		"email":    email,
		"password": "wrong-password-entirely",
	}, map[string]string{"X-Request-Id": "req-badlogin-1"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMeRequiresBearerToken(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/v1/me", nil)
	req.Header.Set("X-Request-Id", "req-me-unauth")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/v1/me", nil)
	req.Header.Set("X-Request-Id", "req-me-garbage")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}
