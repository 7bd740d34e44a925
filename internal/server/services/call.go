package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/logging"
	"github.com/dmitrijs2005/parley/internal/server/access"
	"github.com/dmitrijs2005/parley/internal/server/config"
	"github.com/dmitrijs2005/parley/internal/server/models"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
)

// Call answer statuses.
const (
	CallAccepted = "accepted"
	CallDeclined = "declined"
	CallMissed   = "missed"
)

// Invite is a pending call invitation. Invites are transient: they live in
// memory only, and expire after the configured TTL if unanswered.
type Invite struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	CallerID       string    `json:"caller_id"`
	CalleeID       string    `json:"callee_id"`
	RoomURL        string    `json:"room_url"`
	CreatedAt      time.Time `json:"created_at"`

	timer *time.Timer
}

// CallAnswer is the payload pushed back to the caller when the callee
// answers or the invite expires.
type CallAnswer struct {
	InviteID string `json:"invite_id"`
	Status   string `json:"status"`
	RoomURL  string `json:"room_url,omitempty"`
}

// CallService implements the invitation side of the video-call bridge. The
// conference itself runs in an external widget; this service only allocates
// a room URL and shepherds the invite through its short lifecycle:
//
//	invite -> accepted | declined | missed (TTL expiry)
//
// On accept a call-type message is posted into the conversation as the
// durable call notice.
type CallService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	feed        Feed
	messages    *MessageService
	logger      logging.Logger

	roomURLTemplate string
	inviteTTL       time.Duration

	mu      sync.Mutex
	pending map[string]*Invite
}

func NewCallService(db *sql.DB, m repomanager.RepositoryManager, feed Feed, messages *MessageService, logger logging.Logger, cfg *config.Config) *CallService {
	return &CallService{
		db:              db,
		repomanager:     m,
		feed:            feed,
		messages:        messages,
		logger:          logger.With("module", "calls"),
		roomURLTemplate: cfg.CallRoomURLTemplate,
		inviteTTL:       cfg.CallInviteTTL,
		pending:         make(map[string]*Invite),
	}
}

// Invite allocates a room, records a pending invitation, and pushes a
// call.invite event on the callee's per-user channel. Caller and callee
// must both participate in the conversation. A callee with no live feed
// session cannot ring; the invite is refused up front as ErrorUnavailable
// instead of sitting out the TTL.
func (s *CallService) Invite(ctx context.Context, callerID, calleeID, conversationID string) (*Invite, error) {
	if callerID == calleeID {
		return nil, common.ErrorValidation
	}

	checker := access.NewChecker(s.repomanager.Participants(s.db))
	if err := checker.RequireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	if err := checker.RequireParticipant(ctx, conversationID, calleeID); err != nil {
		return nil, err
	}

	if !s.feed.Connected(calleeID) {
		return nil, common.ErrorUnavailable
	}

	inviteID, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, common.ErrorInternal
	}
	roomID, err := common.MakeRandHexString(8)
	if err != nil {
		return nil, common.ErrorInternal
	}

	inv := &Invite{
		ID:             inviteID,
		ConversationID: conversationID,
		CallerID:       callerID,
		CalleeID:       calleeID,
		RoomURL:        fmt.Sprintf(s.roomURLTemplate, roomID),
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	s.pending[inv.ID] = inv
	inv.timer = time.AfterFunc(s.inviteTTL, func() { s.expire(inv.ID) })
	s.mu.Unlock()

	s.feed.SendToUser(ctx, calleeID, realtime.Event{Type: realtime.EventCallInvite, Payload: inv})

	return inv, nil
}

// Answer resolves a pending invite. Only the callee may answer; an unknown
// or already-expired invite yields common.ErrorNotFound. On accept, the
// room URL is echoed back and a call notice message is written.
func (s *CallService) Answer(ctx context.Context, calleeID, inviteID string, accept bool) (*CallAnswer, error) {
	inv, ok := s.take(inviteID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	if inv.CalleeID != calleeID {
		// put it back; answering someone else's invite is forbidden
		s.restore(inv)
		return nil, common.ErrorForbidden
	}

	answer := &CallAnswer{InviteID: inv.ID, Status: CallDeclined}
	if accept {
		answer.Status = CallAccepted
		answer.RoomURL = inv.RoomURL

		content := "Call started: " + inv.RoomURL
		if _, err := s.messages.Send(ctx, calleeID, &models.Message{
			ConversationID: inv.ConversationID,
			SenderID:       calleeID,
			Content:        &content,
			Type:           models.MessageTypeCall,
		}); err != nil {
			s.logger.Warn(ctx, "failed to record call notice", "error", err)
		}
	}

	s.feed.SendToUser(ctx, inv.CallerID, realtime.Event{Type: realtime.EventCallAnswer, Payload: answer})

	return answer, nil
}

// Cancel withdraws a pending invite before it was answered. Only the
// caller may cancel; the callee's prompt is dismissed with a call.cancel.
func (s *CallService) Cancel(ctx context.Context, callerID, inviteID string) error {
	inv, ok := s.take(inviteID)
	if !ok {
		return common.ErrorNotFound
	}
	if inv.CallerID != callerID {
		s.restore(inv)
		return common.ErrorForbidden
	}

	s.feed.SendToUser(ctx, inv.CalleeID, realtime.Event{Type: realtime.EventCallCancel, Payload: map[string]string{"invite_id": inv.ID}})
	return nil
}

// expire handles TTL expiry of an unanswered invite: the callee's prompt is
// dismissed and the caller learns the call was missed.
func (s *CallService) expire(inviteID string) {
	inv, ok := s.take(inviteID)
	if !ok {
		return
	}

	ctx := context.Background()
	s.feed.SendToUser(ctx, inv.CalleeID, realtime.Event{Type: realtime.EventCallCancel, Payload: map[string]string{"invite_id": inv.ID}})
	s.feed.SendToUser(ctx, inv.CallerID, realtime.Event{Type: realtime.EventCallAnswer, Payload: &CallAnswer{InviteID: inv.ID, Status: CallMissed}})
}

// take removes and returns a pending invite, stopping its expiry timer.
func (s *CallService) take(inviteID string) (*Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.pending[inviteID]
	if !ok {
		return nil, false
	}
	delete(s.pending, inviteID)
	if inv.timer != nil {
		inv.timer.Stop()
	}
	return inv, true
}

func (s *CallService) restore(inv *Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[inv.ID] = inv
	if inv.timer != nil {
		inv.timer.Reset(s.inviteTTL)
	}
}
