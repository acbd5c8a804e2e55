package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	sessionapp "hireloop/contexts/identity-access/session-service/application"
	meetinghttp "hireloop/contexts/scheduling/meeting-service/transport/http"
)

var errInvalidJSON = errors.New("request body must be valid JSON")

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	s.handleMutatingMeeting(w, r, http.StatusCreated, func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error) {
		var req meetinghttp.CreateMeetingRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errInvalidJSON
		}
		return s.scheduling.Handler.CreateMeetingHandler(r.Context(), actorFrom(tenant), requestID, req)
	})
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}
	tenant, ok := s.authenticate(w, r, requestID)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))

	resp, err := s.scheduling.Handler.ListMeetingsHandler(r.Context(), actorFrom(tenant), query.Get("status"), page, perPage)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}
	tenant, ok := s.authenticate(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.scheduling.Handler.GetMeetingHandler(r.Context(), actorFrom(tenant), r.PathValue("meeting_id"))
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptMeeting(w http.ResponseWriter, r *http.Request) {
	s.handleMutatingMeeting(w, r, http.StatusOK, func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error) {
		var req meetinghttp.AcceptMeetingRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errInvalidJSON
		}
		return s.scheduling.Handler.AcceptMeetingHandler(r.Context(), actorFrom(tenant), requestID, r.PathValue("meeting_id"), req)
	})
}

func (s *Server) handleDenyMeeting(w http.ResponseWriter, r *http.Request) {
	s.handleMutatingMeeting(w, r, http.StatusOK, func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error) {
		var req meetinghttp.DenyMeetingRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, errInvalidJSON
			}
		}
		return s.scheduling.Handler.DenyMeetingHandler(r.Context(), actorFrom(tenant), requestID, r.PathValue("meeting_id"), req)
	})
}

func (s *Server) handleRescheduleMeeting(w http.ResponseWriter, r *http.Request) {
	s.handleMutatingMeeting(w, r, http.StatusOK, func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error) {
		var req meetinghttp.RescheduleMeetingRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errInvalidJSON
		}
		return s.scheduling.Handler.RescheduleMeetingHandler(r.Context(), actorFrom(tenant), requestID, r.PathValue("meeting_id"), req)
	})
}

func (s *Server) handleEndMeeting(w http.ResponseWriter, r *http.Request) {
	s.handleMutatingMeeting(w, r, http.StatusOK, func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error) {
		var req meetinghttp.EndMeetingRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, errInvalidJSON
			}
		}
		return s.scheduling.Handler.EndMeetingHandler(r.Context(), actorFrom(tenant), requestID, r.PathValue("meeting_id"), req)
	})
}

// handleMutatingMeeting is the shared wrapper for mutating lifecycle
// endpoints: request id, bearer auth, idempotency replay, execute, record.
func (s *Server) handleMutatingMeeting(
	w http.ResponseWriter,
	r *http.Request,
	successStatus int,
	execute func(tenant sessionapp.TenantContext, requestID string, body []byte) (any, error),
) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}
	tenant, ok := s.authenticate(w, r, requestID)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, requestID, http.StatusBadRequest, "invalid_body", "request body could not be read")
		return
	}
	key, fingerprint, proceed := s.checkIdempotency(w, r, requestID, tenant.OrganizationID, body)
	if !proceed {
		return
	}

	resp, err := execute(tenant, requestID, body)
	if err != nil {
		s.releaseIdempotency(r, tenant.OrganizationID, key)
		if errors.Is(err, errInvalidJSON) {
			writeError(w, requestID, http.StatusBadRequest, "invalid_json", errInvalidJSON.Error())
			return
		}
		s.writeDomainError(w, requestID, err)
		return
	}
	s.respondIdempotent(w, r, requestID, tenant.OrganizationID, key, fingerprint, successStatus, resp)
}
