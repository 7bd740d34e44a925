package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/server/access"
	"github.com/dmitrijs2005/parley/internal/server/models"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
)

const defaultMessageLimit = 200

// MessageService inserts messages and serves conversation history.
// Each insert fans out a message.insert event to the participants'
// subscribed sessions; the sender's own sessions receive it too, and the
// client de-duplicates against the direct insert response by message id.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	feed        Feed
	presence    *ProfileService
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, feed Feed, presence *ProfileService) *MessageService {
	return &MessageService{db: db, repomanager: m, feed: feed, presence: presence}
}

// Send inserts a message after the access rules pass: sender must equal the
// caller and the caller must be a participant. Exactly one of content and
// imageKey must be set for text/image messages; call notices carry content.
func (s *MessageService) Send(ctx context.Context, callerID string, msg *models.Message) (*models.Message, error) {
	switch msg.Type {
	case models.MessageTypeText, models.MessageTypeCall:
		if msg.Content == nil || *msg.Content == "" {
			return nil, common.ErrorValidation
		}
	case models.MessageTypeImage:
		if msg.ImageKey == nil || *msg.ImageKey == "" {
			return nil, common.ErrorValidation
		}
	default:
		return nil, common.ErrorValidation
	}

	checker := access.NewChecker(s.repomanager.Participants(s.db))
	if err := checker.CanSendMessage(ctx, msg.ConversationID, msg.SenderID, callerID); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Messages(s.db).Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	// attach the sender profile for the feed payload and the response
	if profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, callerID); err == nil {
		created.Sender = profile
	}

	// sending a message is a meaningful action: refresh presence and float
	// the conversation to the top of everyone's list
	_ = s.presence.Touch(ctx, callerID)
	_ = s.repomanager.Conversations(s.db).Touch(ctx, msg.ConversationID)

	participantIDs, err := s.repomanager.Participants(s.db).ListUserIDs(ctx, msg.ConversationID)
	if err == nil {
		s.feed.PublishToConversation(ctx, participantIDs, realtime.Event{
			Type:           realtime.EventMessageInsert,
			ConversationID: msg.ConversationID,
			Payload:        created,
		})
	}

	return created, nil
}

// List returns the conversation's messages ordered by creation time, sender
// profiles attached, provided the caller participates in it.
func (s *MessageService) List(ctx context.Context, conversationID, callerID string, limit int) ([]*models.Message, error) {
	checker := access.NewChecker(s.repomanager.Participants(s.db))
	if err := checker.RequireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}
	return s.repomanager.Messages(s.db).ListByConversation(ctx, conversationID, limit)
}
