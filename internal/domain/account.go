package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectedAccount is one OAuth-linked external profile. Token material is
// owned exclusively by this record; the token manager refreshes it in place.
type ConnectedAccount struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Platform       Platform
	PlatformUserID string
	Username       string
	DisplayName    string
	AvatarURL      string
	Followers      int
	Following      int
	IsActive       bool
	AccessToken    string
	RefreshToken   string // empty when the platform issued none
	TokenExpiresAt *time.Time
	LastSyncedAt   *time.Time
	CreatedAt      time.Time
}
