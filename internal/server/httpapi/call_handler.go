package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type callInviteRequest struct {
	CalleeID       string `json:"callee_id"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleCallInvite(w http.ResponseWriter, r *http.Request) {
	var req callInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	inv, err := s.calls.Invite(r.Context(), callerID(r), req.CalleeID, req.ConversationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

type callAnswerRequest struct {
	Accept bool `json:"accept"`
}

func (s *Server) handleCallAnswer(w http.ResponseWriter, r *http.Request) {
	var req callAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	answer, err := s.calls.Answer(r.Context(), callerID(r), chi.URLParam(r, "id"), req.Accept)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCallCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.calls.Cancel(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
