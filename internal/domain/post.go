package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is one normalized platform content item. Posts are upserted keyed by
// (AccountID, PlatformPostID) so repeated analyses refresh counters instead
// of duplicating rows.
type Post struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	PlatformPostID  string
	ContentType     ContentType
	Caption         string
	Hashtags        []string
	Mentions        []string
	MediaURL        string
	ThumbnailURL    string
	DurationSeconds *int
	Likes           int
	Comments        int
	Shares          int
	Saves           int
	Views           int
	Reach           int
	EngagementRate  float64
	PostedAt        time.Time
}

// ProfileSnapshot is the profile-level view an adapter returns.
type ProfileSnapshot struct {
	PlatformUserID string
	Username       string
	DisplayName    string
	AvatarURL      string
	Followers      int
	Following      int
}
