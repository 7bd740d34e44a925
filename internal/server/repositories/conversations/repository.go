package conversations

import (
	"context"

	"github.com/dmitrijs2005/parley/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	// Touch marks the conversation as recently active so ListForUser keeps
	// active conversations on top.
	Touch(ctx context.Context, id string) error
	// ListForUser returns conversations the user participates in, most
	// recently updated first.
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
}
