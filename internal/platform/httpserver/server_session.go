package httpserver

import (
	"encoding/json"
	"net/http"

	sessionhttp "hireloop/contexts/identity-access/session-service/transport/http"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}

	var req sessionhttp.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, requestID, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.identity.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}

	var req sessionhttp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, requestID, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.identity.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.requestID(w, r)
	if !ok {
		return
	}

	claims, err := s.identity.Guard.RequireSession(r.Header.Get("Authorization"))
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}

	resp, err := s.identity.Handler.MeHandler(r.Context(), claims)
	if err != nil {
		s.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
