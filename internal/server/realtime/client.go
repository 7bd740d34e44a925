package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds the per-client queue; events beyond it are dropped
	// rather than queued without limit. Delivery is best-effort.
	sendBuffer = 64
)

// Client is one connected session of one user. A user may hold several
// clients (tabs). Subscription state is owned by the client and torn down
// with it.
type Client struct {
	UserID string

	hub  *Hub
	conn *websocket.Conn
	send chan Event

	mu   sync.RWMutex
	subs map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Event, sendBuffer),
		subs:   make(map[string]struct{}),
		done:   make(chan struct{}),
	}
}

// Subscribe attaches the client to a conversation's event stream. The
// previous subscription stays active until explicitly unsubscribed; the UI
// unsubscribes when a different conversation is selected.
func (c *Client) Subscribe(conversationID string) {
	c.mu.Lock()
	c.subs[conversationID] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) Unsubscribe(conversationID string) {
	c.mu.Lock()
	delete(c.subs, conversationID)
	c.mu.Unlock()
}

func (c *Client) subscribed(conversationID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[conversationID]
	return ok
}

// enqueue hands an event to the write pump. A full buffer drops the event:
// a stalled tab must not block delivery to everyone else.
func (c *Client) enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// WritePump drains the send queue onto the connection and keeps it alive
// with pings. It exits when the client is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes subscription frames until the peer disconnects.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Action {
		case ActionSubscribe:
			if frame.ConversationID != "" {
				c.Subscribe(frame.ConversationID)
			}
		case ActionUnsubscribe:
			if frame.ConversationID != "" {
				c.Unsubscribe(frame.ConversationID)
			}
		}
	}
}
