package realtime

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/parley/internal/logging"
)

// Hub tracks connected clients keyed by user id and fans events out to them.
// It never blocks on a client: a slow session loses events instead of
// stalling the feed.
type Hub struct {
	logger logging.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger:  logger.With("module", "realtime_hub"),
		clients: make(map[string]map[*Client]struct{}),
	}
}

// Register attaches a connection as a new client session for userID and
// starts its pumps.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	c := newClient(h, userID, conn)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.WritePump()

	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()

	c.close()
}

// PublishToConversation delivers ev to every session of the given users that
// is currently subscribed to ev.ConversationID.
func (h *Hub) PublishToConversation(ctx context.Context, userIDs []string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			if !c.subscribed(ev.ConversationID) {
				continue
			}
			if !c.enqueue(ev) {
				h.logger.Warn(ctx, "dropping event for slow client", "user_id", uid, "type", ev.Type)
			}
		}
	}
}

// Broadcast delivers ev to every connected session regardless of
// subscriptions. Used for presence updates.
func (h *Hub) Broadcast(ctx context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for uid, set := range h.clients {
		for c := range set {
			if !c.enqueue(ev) {
				h.logger.Warn(ctx, "dropping event for slow client", "user_id", uid, "type", ev.Type)
			}
		}
	}
}

// SendToUser delivers ev to every session of one user. Used for the
// per-identity call-invitation channel.
func (h *Hub) SendToUser(ctx context.Context, userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		if !c.enqueue(ev) {
			h.logger.Warn(ctx, "dropping event for slow client", "user_id", userID, "type", ev.Type)
		}
	}
}

// Connected reports whether the user currently has at least one session.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
