package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/parley/internal/server/repositories/profiles"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	views, err := s.profiles.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.profiles.Get(r.Context(), callerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	AvatarKey   *string `json:"avatar_key"`
	Bio         *string `json:"bio"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	view, err := s.profiles.Update(r.Context(), callerID(r), &profiles.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarKey:   req.AvatarKey,
		Bio:         req.Bio,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleResolveAvatar serves the public avatar lookup. Storage keys contain
// slashes, so the route uses a wildcard; chi leaves the tail percent-encoded
// when the request path was.
func (s *Server) handleResolveAvatar(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing key")
		return
	}

	signed, err := s.storage.ResolveAvatar(r.Context(), key)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": signed})
}
