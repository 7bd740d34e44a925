package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/dbx"
	"github.com/dmitrijs2005/parley/internal/logging"
	"github.com/dmitrijs2005/parley/internal/server/models"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/parley/internal/server/repositories/messages"
	"github.com/dmitrijs2005/parley/internal/server/repositories/participants"
	"github.com/dmitrijs2005/parley/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/parley/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/parley/internal/server/repositories/users"
)

// --- shared helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func strptr(s string) *string { return &s }

// --- fake feed ---

type fakeFeed struct {
	mu         sync.Mutex
	published  []realtime.Event
	broadcasts []realtime.Event
	direct     map[string][]realtime.Event
	offline    map[string]bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{direct: map[string][]realtime.Event{}, offline: map[string]bool{}}
}

func (f *fakeFeed) setOffline(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline[userID] = true
}

func (f *fakeFeed) Connected(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.offline[userID]
}

func (f *fakeFeed) PublishToConversation(_ context.Context, _ []string, ev realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
}

func (f *fakeFeed) Broadcast(_ context.Context, ev realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, ev)
}

func (f *fakeFeed) SendToUser(_ context.Context, userID string, ev realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[userID] = append(f.direct[userID], ev)
}

func (f *fakeFeed) sentTo(userID string) []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]realtime.Event(nil), f.direct[userID]...)
}

// --- fake repositories ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*models.User
	byName map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[u.Login]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	f.byName[u.Login] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byName[login]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type fakeProfilesRepo struct {
	mu       sync.Mutex
	seq      int
	byUserID map[string]*models.Profile
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{byUserID: map[string]*models.Profile{}}
}

func (f *fakeProfilesRepo) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUserID[p.UserID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.seq++
	p.ID = fmt.Sprintf("p-%d", f.seq)
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	f.byUserID[p.UserID] = p
	return p, nil
}

func (f *fakeProfilesRepo) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byUserID[userID]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProfilesRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byUserID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProfilesRepo) List(_ context.Context) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Profile
	for _, p := range f.byUserID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfilesRepo) Update(_ context.Context, userID string, upd *profiles.ProfileUpdate) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUserID[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Username != nil {
		p.Username = upd.Username
	}
	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.AvatarKey != nil {
		p.AvatarKey = upd.AvatarKey
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (f *fakeProfilesRepo) Touch(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byUserID[userID]; ok {
		p.LastSeen = &at
	}
	return nil
}

type fakeParticipantsRepo struct {
	mu    sync.Mutex
	seq   int
	pairs map[string][]string // conversationID -> userIDs
}

func newFakeParticipantsRepo() *fakeParticipantsRepo {
	return &fakeParticipantsRepo{pairs: map[string][]string{}}
}

func (f *fakeParticipantsRepo) Add(_ context.Context, conversationID, userID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uid := range f.pairs[conversationID] {
		if uid == userID {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.seq++
	f.pairs[conversationID] = append(f.pairs[conversationID], userID)
	return &models.Participant{
		ID:             fmt.Sprintf("cp-%d", f.seq),
		ConversationID: conversationID,
		UserID:         userID,
		CreatedAt:      time.Now(),
	}, nil
}

func (f *fakeParticipantsRepo) ListByConversation(_ context.Context, conversationID string) ([]*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Participant
	for i, uid := range f.pairs[conversationID] {
		out = append(out, &models.Participant{
			ID:             fmt.Sprintf("cp-list-%d", i),
			ConversationID: conversationID,
			UserID:         uid,
		})
	}
	return out, nil
}

func (f *fakeParticipantsRepo) ListUserIDs(_ context.Context, conversationID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pairs[conversationID]...), nil
}

func (f *fakeParticipantsRepo) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uid := range f.pairs[conversationID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeConversationsRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*models.Conversation
}

func newFakeConversationsRepo() *fakeConversationsRepo {
	return &fakeConversationsRepo{byID: map[string]*models.Conversation{}}
}

func (f *fakeConversationsRepo) Create(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	conv.ID = fmt.Sprintf("c-%d", f.seq)
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	f.byID[conv.ID] = conv
	return conv, nil
}

func (f *fakeConversationsRepo) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.byID[id]; ok {
		return conv, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeConversationsRepo) Touch(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.byID[id]; ok {
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeConversationsRepo) ListForUser(_ context.Context, _ string) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Conversation
	for _, conv := range f.byID {
		out = append(out, conv)
	}
	return out, nil
}

type fakeMessagesRepo struct {
	mu   sync.Mutex
	seq  int
	msgs []*models.Message
}

func newFakeMessagesRepo() *fakeMessagesRepo { return &fakeMessagesRepo{} }

func (f *fakeMessagesRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	msg.ID = fmt.Sprintf("m-%d", f.seq)
	msg.CreatedAt = time.Now()
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeMessagesRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeMessagesRepo) ListByConversation(_ context.Context, conversationID string, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[token]; ok {
		return rt, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

// --- fake repomanager ---

type fakeRepoManager struct {
	users         *fakeUsersRepo
	profiles      *fakeProfilesRepo
	convs         *fakeConversationsRepo
	parts         *fakeParticipantsRepo
	msgs          *fakeMessagesRepo
	refreshTokens *fakeRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         newFakeUsersRepo(),
		profiles:      newFakeProfilesRepo(),
		convs:         newFakeConversationsRepo(),
		parts:         newFakeParticipantsRepo(),
		msgs:          newFakeMessagesRepo(),
		refreshTokens: newFakeRefreshRepo(),
	}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return f.users }
func (f *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository           { return f.profiles }
func (f *fakeRepoManager) Conversations(dbx.DBTX) conversations.Repository { return f.convs }
func (f *fakeRepoManager) Participants(dbx.DBTX) participants.Repository   { return f.parts }
func (f *fakeRepoManager) Messages(dbx.DBTX) messages.Repository           { return f.msgs }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return f.refreshTokens
}
