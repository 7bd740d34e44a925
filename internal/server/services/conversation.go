package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/dbx"
	"github.com/dmitrijs2005/parley/internal/server/access"
	"github.com/dmitrijs2005/parley/internal/server/models"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
)

// ConversationService creates conversations and manages membership. All
// reads go through the access checker: a conversation is invisible to
// non-participants.
type ConversationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewConversationService(db *sql.DB, m repomanager.RepositoryManager) *ConversationService {
	return &ConversationService{db: db, repomanager: m}
}

func (s *ConversationService) checker(db dbx.DBTX) *access.Checker {
	return access.NewChecker(s.repomanager.Participants(db))
}

// Create inserts a conversation and its creator's participant row in one
// transaction, so the creator is a member from the first moment. peerIDs
// are added in the same transaction; for a direct (non-group) conversation
// exactly one peer is expected.
func (s *ConversationService) Create(ctx context.Context, creatorID string, name *string, isGroup bool, peerIDs []string) (*models.Conversation, error) {
	if !isGroup && len(peerIDs) != 1 {
		return nil, common.ErrorValidation
	}

	conv := &models.Conversation{Name: name, IsGroup: isGroup, CreatorID: creatorID}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		convRepo := s.repomanager.Conversations(tx)
		if _, err := convRepo.Create(ctx, conv); err != nil {
			return err
		}

		partRepo := s.repomanager.Participants(tx)
		if _, err := partRepo.Add(ctx, conv.ID, creatorID); err != nil {
			return err
		}
		for _, peer := range peerIDs {
			if peer == creatorID {
				continue
			}
			if _, err := partRepo.Add(ctx, conv.ID, peer); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	return conv, nil
}

// Get returns the conversation if the caller participates in it.
func (s *ConversationService) Get(ctx context.Context, conversationID, callerID string) (*models.Conversation, error) {
	if err := s.checker(s.db).RequireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
}

// List returns the caller's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, callerID string) ([]*models.Conversation, error) {
	return s.repomanager.Conversations(s.db).ListForUser(ctx, callerID)
}

// AddParticipant adds userID to the conversation. Allowed for the
// conversation's creator and for self-joins; a duplicate membership yields
// common.ErrorAlreadyExists.
func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, callerID, userID string) (*models.Participant, error) {
	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	if err := s.checker(s.db).CanAddParticipant(conv, callerID, userID); err != nil {
		return nil, err
	}

	return s.repomanager.Participants(s.db).Add(ctx, conversationID, userID)
}

// Participants lists the membership of a conversation, visible only to
// participants.
func (s *ConversationService) Participants(ctx context.Context, conversationID, callerID string) ([]*models.Participant, error) {
	if err := s.checker(s.db).RequireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return s.repomanager.Participants(s.db).ListByConversation(ctx, conversationID)
}
