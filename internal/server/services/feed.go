package services

import (
	"context"

	"github.com/dmitrijs2005/parley/internal/server/realtime"
)

// Feed is the slice of the realtime hub the services need for pushing
// change notifications. *realtime.Hub satisfies it.
type Feed interface {
	PublishToConversation(ctx context.Context, userIDs []string, ev realtime.Event)
	Broadcast(ctx context.Context, ev realtime.Event)
	SendToUser(ctx context.Context, userID string, ev realtime.Event)
	// Connected reports whether the user has at least one live session.
	Connected(userID string) bool
}
