package httpserver

import (
	"io"
	"net/http"
)

// Token issuance is deliberately not behind the idempotency cache: every call
// mints a fresh short-lived token and replaying a stale one would hand the
// client an expired credential.
func (s *Server) handleVideoToken(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}
	tenant, ok := s.authenticate(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.scheduling.Handler.VideoTokenHandler(r.Context(), actorFrom(tenant), requestID, r.PathValue("meeting_id"))
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInterviewRoom(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}
	tenant, ok := s.authenticate(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.scheduling.Handler.InterviewRoomHandler(r.Context(), actorFrom(tenant), r.PathValue("meeting_id"))
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleProviderWebhook authenticates by signature, not bearer token: the
// video provider is not a tenant. The raw body must reach the reconciler
// unmodified or the signature check breaks.
func (s *Server) handleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, requestID, http.StatusBadRequest, "invalid_body", "request body could not be read")
		return
	}

	resp, err := s.scheduling.Handler.WebhookHandler(r.Context(), body, r.Header.Get(headerProviderSignature), requestID)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
