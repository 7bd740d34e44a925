package models

import "time"

// Message types. Messages are immutable once created; there is no update or
// delete path anywhere in the server.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeCall  = "call"
)

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        *string   `json:"content"`
	ImageKey       *string   `json:"image_key"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`

	// Sender is attached on reads for rendering; it is not a column.
	Sender *Profile `json:"sender,omitempty"`
}
