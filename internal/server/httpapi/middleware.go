package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/parley/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authMiddleware validates the Bearer access token and stores the caller's
// user id on the request context. Requests without a valid token never
// reach a handler.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(h, "Bearer "), s.jwtSecret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerID returns the authenticated user id placed by authMiddleware.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
