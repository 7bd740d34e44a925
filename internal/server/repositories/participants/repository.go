package participants

import (
	"context"

	"github.com/dmitrijs2005/parley/internal/server/models"
)

type Repository interface {
	// Add inserts a membership row. A duplicate (conversation, user) pair
	// yields common.ErrorAlreadyExists.
	Add(ctx context.Context, conversationID, userID string) (*models.Participant, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Participant, error)
	// ListUserIDs returns the user ids of a conversation's participants,
	// used for event fan-out.
	ListUserIDs(ctx context.Context, conversationID string) ([]string, error)
	// IsParticipant is the membership lookup behind every visibility rule.
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}
