// Package realtime implements the change-notification feed: a WebSocket hub
// that pushes row-insert and presence events to connected sessions, plus the
// per-user channel used for call invitations.
package realtime

// Event types pushed over the feed.
const (
	EventMessageInsert = "message.insert"
	EventProfileUpdate = "profile.update"
	EventCallInvite    = "call.invite"
	EventCallAnswer    = "call.answer"
	EventCallCancel    = "call.cancel"
)

// Event is a single feed frame. ConversationID is set for events scoped to a
// conversation subscription; it is empty for broadcast (presence) and
// per-user (call) events.
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Payload        any    `json:"payload"`
}

// Client frames. The only thing a session sends upstream is subscription
// management for its currently open conversation.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

type ClientFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
}
