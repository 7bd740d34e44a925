package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/parley/internal/server/auth"
)

func (s *Server) upgrader() websocket.Upgrader {
	allowed := make(map[string]bool, len(s.allowedOrigins))
	for _, origin := range s.allowedOrigins {
		allowed[origin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no Origin header
			return origin == "" || allowed[origin]
		},
	}
}

// handleFeed upgrades the connection and attaches it to the hub as a feed
// session. The token travels in the "token" query parameter because
// browsers cannot attach headers to WebSocket dials.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := s.hub.Register(userID, conn)

	// attaching the feed counts as activity
	_ = s.profiles.Touch(r.Context(), userID)

	client.ReadPump()
}
