package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type presignUploadRequest struct {
	ContentType    string `json:"content_type"`
	Size           int64  `json:"size"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type presignUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Server) handlePresignAvatar(w http.ResponseWriter, r *http.Request) {
	var req presignUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	key, url, err := s.storage.PresignAvatarPut(r.Context(), req.ContentType, req.Size)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, presignUploadResponse{Key: key, URL: url})
}

func (s *Server) handlePresignChatImage(w http.ResponseWriter, r *http.Request) {
	var req presignUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	caller := callerID(r)
	key, url, err := s.storage.PresignChatImagePut(r.Context(), caller, req.ConversationID, req.ContentType, req.Size)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// an upload is a meaningful action for presence purposes
	_ = s.profiles.Touch(r.Context(), caller)

	respondJSON(w, http.StatusOK, presignUploadResponse{Key: key, URL: url})
}

func (s *Server) handleResolveChatImage(w http.ResponseWriter, r *http.Request) {
	url, err := s.storage.ResolveChatImage(r.Context(), callerID(r), chi.URLParam(r, "messageID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
