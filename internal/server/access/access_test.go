package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/server/models"
)

// fakeMembers answers membership from a fixed (conversation, user) set.
type fakeMembers struct {
	pairs map[[2]string]bool
	err   error
}

func (f *fakeMembers) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[[2]string{conversationID, userID}], nil
}

func newChecker(pairs ...[2]string) *Checker {
	m := &fakeMembers{pairs: map[[2]string]bool{}}
	for _, p := range pairs {
		m.pairs[p] = true
	}
	return NewChecker(m)
}

func TestRequireParticipant(t *testing.T) {
	ctx := context.Background()

	// conversation c1 contains only B: A must not see anything in it
	c := newChecker([2]string{"c1", "user-b"})

	require.NoError(t, c.RequireParticipant(ctx, "c1", "user-b"))

	err := c.RequireParticipant(ctx, "c1", "user-a")
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestRequireParticipant_LookupError(t *testing.T) {
	c := NewChecker(&fakeMembers{err: errors.New("db down")})

	err := c.RequireParticipant(context.Background(), "c1", "user-a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorForbidden)
}

func TestCanAddParticipant(t *testing.T) {
	conv := &models.Conversation{ID: "c1", CreatorID: "creator"}
	c := newChecker()

	tests := []struct {
		name      string
		callerID  string
		newUserID string
		wantErr   error
	}{
		{"creator adds peer", "creator", "peer", nil},
		{"self join", "joiner", "joiner", nil},
		{"stranger adds someone else", "stranger", "victim", common.ErrorForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := c.CanAddParticipant(conv, tc.callerID, tc.newUserID)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestCanSendMessage(t *testing.T) {
	ctx := context.Background()
	c := newChecker([2]string{"c1", "user-a"})

	// participant sending as themselves
	require.NoError(t, c.CanSendMessage(ctx, "c1", "user-a", "user-a"))

	// spoofed sender is rejected even for a participant
	err := c.CanSendMessage(ctx, "c1", "user-b", "user-a")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	// non-participant cannot send at all
	err = c.CanSendMessage(ctx, "c1", "user-x", "user-x")
	assert.ErrorIs(t, err, common.ErrorForbidden)
}
