package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dmitrijs2005/parley/internal/logging"
	"github.com/dmitrijs2005/parley/internal/server/config"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/services"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	logger         logging.Logger
	jwtSecret      []byte
	allowedOrigins []string

	users         *services.UserService
	profiles      *services.ProfileService
	conversations *services.ConversationService
	messages      *services.MessageService
	storage       *services.StorageService
	calls         *services.CallService
	hub           *realtime.Hub
}

func NewServer(
	logger logging.Logger,
	cfg *config.Config,
	users *services.UserService,
	profiles *services.ProfileService,
	conversations *services.ConversationService,
	messages *services.MessageService,
	storage *services.StorageService,
	calls *services.CallService,
	hub *realtime.Hub,
) *Server {
	return &Server{
		logger:         logger.With("module", "httpapi"),
		jwtSecret:      []byte(cfg.SecretKey),
		allowedOrigins: cfg.AllowedOrigins,
		users:          users,
		profiles:       profiles,
		conversations:  conversations,
		messages:       messages,
		storage:        storage,
		calls:          calls,
		hub:            hub,
	}
}

// Router wires all routes. Everything except registration, login, and token
// refresh sits behind the auth middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/refresh", s.handleRefresh)

		api.Group(func(private chi.Router) {
			private.Use(s.authMiddleware)

			private.Get("/profiles", s.handleListProfiles)
			private.Get("/profiles/me", s.handleGetOwnProfile)
			private.Patch("/profiles/me", s.handleUpdateProfile)

			private.Post("/conversations", s.handleCreateConversation)
			private.Get("/conversations", s.handleListConversations)
			private.Get("/conversations/{id}", s.handleGetConversation)
			private.Get("/conversations/{id}/participants", s.handleListParticipants)
			private.Post("/conversations/{id}/participants", s.handleAddParticipant)
			private.Get("/conversations/{id}/messages", s.handleListMessages)
			private.Post("/conversations/{id}/messages", s.handleSendMessage)

			private.Post("/uploads/avatar", s.handlePresignAvatar)
			private.Post("/uploads/chat-image", s.handlePresignChatImage)
			private.Get("/images/{messageID}", s.handleResolveChatImage)

			private.Post("/calls/invite", s.handleCallInvite)
			private.Post("/calls/{id}/answer", s.handleCallAnswer)
			private.Post("/calls/{id}/cancel", s.handleCallCancel)
		})

		// avatars are public; the wildcard captures the slashes in
		// generated storage keys
		api.Get("/avatars/*", s.handleResolveAvatar)

		// the feed authenticates via query token inside the handler,
		// browsers cannot set headers on WebSocket dials
		api.Get("/ws", s.handleFeed)
	})

	return r
}
