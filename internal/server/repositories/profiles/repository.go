package profiles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/parley/internal/server/models"
)

// ProfileUpdate carries the caller-editable subset of a profile. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	Username    *string
	DisplayName *string
	AvatarKey   *string
	Bio         *string
}

type Repository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Update(ctx context.Context, userID string, upd *ProfileUpdate) (*models.Profile, error)
	Touch(ctx context.Context, userID string, at time.Time) error
}
