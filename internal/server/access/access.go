// Package access evaluates the row-level rules gating every conversation,
// participant, and message operation against the caller's identity.
//
// The rules mirror what the schema cannot express on its own:
//
//   - reading a conversation, its participant list, or its messages requires
//     the caller to be a participant;
//   - a participant row may be inserted by the conversation's creator or by
//     the user adding themselves;
//   - a message may be inserted only by a participant, and only with the
//     caller as sender;
//   - update and delete of conversations, participants, and messages have no
//     code path at all and are therefore denied everywhere.
//
// Membership is resolved through a single non-recursive lookup
// (is_conversation_participant); a visibility rule must never be defined in
// terms of the visibility of its own table.
package access

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/server/models"
)

// MembershipLookup answers "is this user a participant of this
// conversation". Satisfied by participants.Repository.
type MembershipLookup interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

type Checker struct {
	members MembershipLookup
}

func NewChecker(members MembershipLookup) *Checker {
	return &Checker{members: members}
}

// RequireParticipant returns common.ErrorForbidden unless userID is a
// participant of the conversation. This is the SELECT rule for
// conversations, participant lists, and messages.
func (c *Checker) RequireParticipant(ctx context.Context, conversationID, userID string) error {
	ok, err := c.members.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

// CanAddParticipant is the INSERT rule for conversation_participants:
// the conversation's creator may add anyone; any user may add themselves.
func (c *Checker) CanAddParticipant(conv *models.Conversation, callerID, newUserID string) error {
	if callerID == conv.CreatorID || callerID == newUserID {
		return nil
	}
	return common.ErrorForbidden
}

// CanSendMessage is the INSERT rule for messages: the sender must be the
// caller, and the caller must be a participant of the target conversation.
func (c *Checker) CanSendMessage(ctx context.Context, conversationID, senderID, callerID string) error {
	if senderID != callerID {
		return common.ErrorForbidden
	}
	return c.RequireParticipant(ctx, conversationID, callerID)
}
