package messages

import (
	"context"

	"github.com/dmitrijs2005/parley/internal/server/models"
)

type Repository interface {
	// Create inserts a message row. Messages are immutable: no update or
	// delete method exists on this interface.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// ListByConversation returns messages ordered by created_at with the
	// sender profile attached.
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
}
