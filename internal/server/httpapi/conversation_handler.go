package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/parley/internal/server/models"
)

type createConversationRequest struct {
	Name    *string  `json:"name"`
	IsGroup bool     `json:"is_group"`
	PeerIDs []string `json:"peer_ids"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	conv, err := s.conversations.Create(r.Context(), callerID(r), req.Name, req.IsGroup, req.PeerIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.conversations.List(r.Context(), callerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, convs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversations.Get(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	parts, err := s.conversations.Participants(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parts)
}

type addParticipantRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	p, err := s.conversations.AddParticipant(r.Context(), chi.URLParam(r, "id"), callerID(r), req.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := s.messages.List(r.Context(), chi.URLParam(r, "id"), callerID(r), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	Content  *string `json:"content"`
	ImageKey *string `json:"image_key"`
	Type     string  `json:"type"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if req.Type == "" {
		req.Type = models.MessageTypeText
	}

	caller := callerID(r)
	msg, err := s.messages.Send(r.Context(), caller, &models.Message{
		ConversationID: chi.URLParam(r, "id"),
		SenderID:       caller,
		Content:        req.Content,
		ImageKey:       req.ImageKey,
		Type:           req.Type,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
