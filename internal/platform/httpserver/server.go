package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sessionmodule "hireloop/contexts/identity-access/session-service"
	sessionapp "hireloop/contexts/identity-access/session-service/application"
	sessionerrors "hireloop/contexts/identity-access/session-service/domain/errors"
	scheduling "hireloop/contexts/scheduling/meeting-service"
	schedulingapp "hireloop/contexts/scheduling/meeting-service/application"
	meetingerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/internal/shared/idempotency"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "hireloop/internal/platform/httpserver/docs"
)

const (
	headerRequestID         = "X-Request-Id"
	headerIdempotencyKey    = "Idempotency-Key"
	headerProviderSignature = "X-Provider-Signature"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	identity   sessionmodule.Module
	scheduling scheduling.Module
	idem       idempotency.Cache
}

func New(
	identity sessionmodule.Module,
	schedulingModule scheduling.Module,
	idem idempotency.Cache,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		identity:   identity,
		scheduling: schedulingModule,
		idem:       idem,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/auth/v1/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/v1/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/auth/v1/me", s.handleMe)

	s.mux.HandleFunc("POST /api/scheduling/v1/meetings", s.handleCreateMeeting)
	s.mux.HandleFunc("GET /api/scheduling/v1/meetings", s.handleListMeetings)
	s.mux.HandleFunc("GET /api/scheduling/v1/meetings/{meeting_id}", s.handleGetMeeting)
	s.mux.HandleFunc("POST /api/scheduling/v1/meetings/{meeting_id}/accept", s.handleAcceptMeeting)
	s.mux.HandleFunc("POST /api/scheduling/v1/meetings/{meeting_id}/deny", s.handleDenyMeeting)
	s.mux.HandleFunc("POST /api/scheduling/v1/meetings/{meeting_id}/reschedule", s.handleRescheduleMeeting)
	s.mux.HandleFunc("POST /api/scheduling/v1/meetings/{meeting_id}/end", s.handleEndMeeting)

	s.mux.HandleFunc("POST /api/video/v1/meetings/{meeting_id}/token", s.handleVideoToken)
	s.mux.HandleFunc("GET /api/video/v1/meetings/{meeting_id}/room", s.handleInterviewRoom)
	s.mux.HandleFunc("POST /api/video/v1/webhooks/provider", s.handleProviderWebhook)
}

// requestID enforces the caller-supplied correlation id and echoes it back on
// every response. The rejection itself carries a fresh id so the error is
// still traceable in the logs.
func (s *Server) requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
	if requestID == "" {
		generated := uuid.NewString()
		w.Header().Set(headerRequestID, generated)
		writeError(w, generated, http.StatusBadRequest, "missing_request_id", "X-Request-Id header is required")
		return "", false
	}
	w.Header().Set(headerRequestID, requestID)
	return requestID, true
}

// authenticate verifies the bearer credential and derives the tenant scope.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, requestID string) (sessionapp.TenantContext, bool) {
	claims, err := s.identity.Guard.RequireSession(r.Header.Get("Authorization"))
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return sessionapp.TenantContext{}, false
	}
	tenant, err := sessionapp.Context(claims)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return sessionapp.TenantContext{}, false
	}
	return tenant, true
}

func actorFrom(tenant sessionapp.TenantContext) schedulingapp.Actor {
	return schedulingapp.Actor{
		OrganizationID: tenant.OrganizationID,
		UserID:         tenant.UserID,
		Role:           tenant.Role,
	}
}

// checkIdempotency reserves tenant+key for first execution, or replays the
// recorded response. It writes the response itself when the request is a
// replay, an in-flight duplicate, or a conflict. A caller that proceeds holds
// the reservation and must end it with respondIdempotent or
// releaseIdempotency.
func (s *Server) checkIdempotency(w http.ResponseWriter, r *http.Request, requestID string, tenantID string, body []byte) (key string, fingerprint string, proceed bool) {
	key = strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	fingerprint = idempotency.Fingerprint(body)

	replay, err := s.idem.Check(r.Context(), tenantID, key, fingerprint, time.Now().UTC())
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return "", "", false
	}
	if replay != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(replay.StatusCode)
		_, _ = w.Write(replay.Body)
		return "", "", false
	}
	return key, fingerprint, true
}

// respondIdempotent writes the successful payload and records it for replay.
func (s *Server) respondIdempotent(w http.ResponseWriter, r *http.Request, requestID string, tenantID string, key string, fingerprint string, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.releaseIdempotency(r, tenantID, key)
		writeError(w, requestID, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if err := s.idem.Save(r.Context(), tenantID, key, fingerprint, status, body, time.Now().UTC()); err != nil {
		s.releaseIdempotency(r, tenantID, key)
		s.writeDomainError(w, requestID, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// releaseIdempotency drops a reservation after a failed execution so the
// caller's retry can run instead of hitting a claim that never completed.
func (s *Server) releaseIdempotency(r *http.Request, tenantID string, key string) {
	if err := s.idem.Release(r.Context(), tenantID, key); err != nil {
		s.logger.Error("idempotency reservation release failed",
			"event", "idempotency_release_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"tenant_id", tenantID,
			"error", err.Error(),
		)
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrUnauthenticated),
		errors.Is(err, sessionerrors.ErrInvalidCredentials):
		writeError(w, requestID, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, meetingerrors.ErrInvalidSignature):
		writeError(w, requestID, http.StatusUnauthorized, "invalid_signature", err.Error())
	case errors.Is(err, sessionerrors.ErrForbidden),
		errors.Is(err, meetingerrors.ErrForbidden):
		writeError(w, requestID, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, sessionerrors.ErrResourceNotFound),
		errors.Is(err, sessionerrors.ErrUserNotFound),
		errors.Is(err, meetingerrors.ErrMeetingNotFound):
		writeError(w, requestID, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, sessionerrors.ErrEmailTaken):
		writeError(w, requestID, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, meetingerrors.ErrInvalidTransition):
		writeError(w, requestID, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, meetingerrors.ErrNotJoinable):
		writeError(w, requestID, http.StatusConflict, "not_joinable", err.Error())
	case errors.Is(err, idempotency.ErrConflict):
		writeError(w, requestID, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, idempotency.ErrInProgress):
		writeError(w, requestID, http.StatusConflict, "request_in_progress", err.Error())
	case errors.Is(err, idempotency.ErrKeyRequired):
		writeError(w, requestID, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidEmail),
		errors.Is(err, sessionerrors.ErrWeakPassword),
		errors.Is(err, sessionerrors.ErrInvalidRole),
		errors.Is(err, meetingerrors.ErrInvalidMeetingInput),
		errors.Is(err, meetingerrors.ErrSlotNotProposed),
		errors.Is(err, meetingerrors.ErrInvalidWebhookPayload),
		errors.Is(err, meetingerrors.ErrJoinWindowClosed):
		writeError(w, requestID, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	default:
		s.logger.Error("unmapped domain error",
			"event", "http_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, requestID, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, requestID string, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
