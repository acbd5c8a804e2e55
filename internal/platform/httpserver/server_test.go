package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	session "hireloop/contexts/identity-access/session-service"
	sessionhttp "hireloop/contexts/identity-access/session-service/transport/http"
	scheduling "hireloop/contexts/scheduling/meeting-service"
	"hireloop/internal/platform/messaging"
	"hireloop/internal/shared/idempotency"
)

const (
	testSessionSecret = "test-session-secret"
	testWebhookSecret = "test-webhook-secret"
)

func newTestServer() *Server {
	identity := session.NewInMemoryModule([]byte(testSessionSecret), nil)
	schedulingModule := scheduling.NewInMemoryModule([]byte(testWebhookSecret), messaging.NewBus(nil), nil)
	idem := idempotency.Cache{Backend: idempotency.NewMemoryStore(), TTL: 24 * time.Hour}
	return New(identity, schedulingModule, idem, nil, "")
}

// registerTenantUser registers a user, assigns it to orgID, and logs in again
// so the returned bearer token carries the organization claim.
func registerTenantUser(t *testing.T, server *Server, email string, role string, orgID string) string {
	t.Helper()

	register := map[string]string{
		"email":      email,
		"password":   "correct-horse-battery",
		"first_name": "Test",
		"last_name":  "User",
		"role":       role,
	}
	rr := doJSON(server, http.MethodPost, "/api/auth/v1/register", register, map[string]string{
		"X-Request-Id": "req-register-" + email,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", email, rr.Code, rr.Body.String())
	}

	var pair sessionhttp.TokenPairResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}

	me := httptest.NewRequest(http.MethodGet, "/api/auth/v1/me", nil)
	me.Header.Set("X-Request-Id", "req-me-"+email)
	me.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	meRR := httptest.NewRecorder()
	server.mux.ServeHTTP(meRR, me)
	if meRR.Code != http.StatusOK {
		t.Fatalf("me %s: expected 200, got %d body=%s", email, meRR.Code, meRR.Body.String())
	}
	var profile sessionhttp.ProfileResponse
	if err := json.Unmarshal(meRR.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}

	server.identity.Store.SetOrganization(profile.UserID, orgID)

	login := map[string]string{"email": email, "password": "correct-horse-battery"}
	loginRR := doJSON(server, http.MethodPost, "/api/auth/v1/login", login, map[string]string{
		"X-Request-Id": "req-login-" + email,
	})
	if loginRR.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d body=%s", email, loginRR.Code, loginRR.Body.String())
	}
	if err := json.Unmarshal(loginRR.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode login pair: %v", err)
	}
	return pair.AccessToken
}

func doJSON(server *Server, method string, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func createMeetingRequest() map[string]any {
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	return map[string]any{
		"title":            "Backend screen",
		"meeting_type":     "technical_interview",
		"timezone":         "UTC",
		"duration_minutes": 60,
		"proposed_slots": []map[string]string{{
			"start": start.Format(time.RFC3339),
			"end":   start.Add(time.Hour).Format(time.RFC3339),
		}},
	}
}

func createMeetingAs(t *testing.T, server *Server, token string, key string) string {
	t.Helper()
	rr := doJSON(server, http.MethodPost, "/api/scheduling/v1/meetings", createMeetingRequest(), map[string]string{
		"X-Request-Id":    "req-create-" + key,
		"Authorization":   "Bearer " + token,
		"Idempotency-Key": key,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create meeting: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		MeetingID string `json:"meeting_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created meeting: %v", err)
	}
	if created.MeetingID == "" {
		t.Fatal("created meeting has no id")
	}
	return created.MeetingID
}

func mustDecode(t *testing.T, raw []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode response: %v (%s)", err, raw)
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
