package models

import "time"

// Profile is the public identity attached to a user account. One row per
// account, created in the same transaction as the account itself.
type Profile struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Username    *string    `json:"username"`
	DisplayName string     `json:"display_name"`
	AvatarKey   *string    `json:"avatar_key"`
	Bio         string     `json:"bio"`
	LastSeen    *time.Time `json:"last_seen"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Online reports whether the profile's last_seen falls within the trailing
// presence window measured back from now.
func (p *Profile) Online(now time.Time, window time.Duration) bool {
	if p.LastSeen == nil {
		return false
	}
	return now.Sub(*p.LastSeen) <= window
}
