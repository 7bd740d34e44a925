package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/parley/internal/server/config"
	"github.com/dmitrijs2005/parley/internal/server/models"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
)

// ProfileView is a Profile plus the derived online flag. The flag is
// computed at read time from last_seen and the presence window; it is never
// stored.
type ProfileView struct {
	*models.Profile
	Online bool `json:"online"`
}

// ProfileService reads and updates profiles and maintains presence.
// Presence is a rolling last_seen timestamp: every meaningful user action
// calls Touch, and viewers treat "seen within the window" as online.
type ProfileService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	feed           Feed
	presenceWindow time.Duration

	// now is a seam for presence tests.
	now func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, feed Feed, cfg *config.Config) *ProfileService {
	return &ProfileService{
		db:             db,
		repomanager:    m,
		feed:           feed,
		presenceWindow: cfg.PresenceWindow,
		now:            time.Now,
	}
}

func (s *ProfileService) view(p *models.Profile) *ProfileView {
	return &ProfileView{Profile: p, Online: p.Online(s.now(), s.presenceWindow)}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	repo := s.repomanager.Profiles(s.db)
	p, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(p), nil
}

// List returns every profile with its online flag. The chat UI uses this
// for the contact sidebar.
func (s *ProfileService) List(ctx context.Context) ([]*ProfileView, error) {
	repo := s.repomanager.Profiles(s.db)
	all, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*ProfileView, 0, len(all))
	for _, p := range all {
		views = append(views, s.view(p))
	}
	return views, nil
}

// Update applies the caller-editable profile fields. Only the owning
// identity reaches this method; the handler passes its own user id.
func (s *ProfileService) Update(ctx context.Context, userID string, upd *profiles.ProfileUpdate) (*ProfileView, error) {
	repo := s.repomanager.Profiles(s.db)
	p, err := repo.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	view := s.view(p)
	s.feed.Broadcast(ctx, realtime.Event{Type: realtime.EventProfileUpdate, Payload: view})
	return view, nil
}

// Touch stamps the caller's last_seen with the current time and pushes a
// presence update on the feed. Last write wins; there is no stronger
// invariant.
func (s *ProfileService) Touch(ctx context.Context, userID string) error {
	repo := s.repomanager.Profiles(s.db)
	now := s.now()

	if err := repo.Touch(ctx, userID, now); err != nil {
		return fmt.Errorf("error touching presence: %w", err)
	}

	p, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		// presence is best-effort; the write itself succeeded
		return nil
	}
	s.feed.Broadcast(ctx, realtime.Event{Type: realtime.EventProfileUpdate, Payload: s.view(p)})
	return nil
}
