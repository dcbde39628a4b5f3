package domain

import (
	"time"

	"github.com/google/uuid"
)

// Competitor is a lightweight external-profile snapshot, refreshed on a
// time cadence rather than owned by any job.
type Competitor struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Platform          Platform
	Username          string
	Followers         int
	AvgEngagementRate float64
	PostsPerWeek      float64
	TopHashtags       []string
	ContentFormats    []string
	Niche             string
	LastRefreshedAt   *time.Time
	CreatedAt         time.Time
}

// TacticalAction is one ranked move from the gap analysis.
type TacticalAction struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"` // high | medium | low
	Rationale string `json:"rationale"`
}

// HashtagDiff flags which side of the comparison uses a tag.
type HashtagDiff struct {
	Hashtag        string `json:"hashtag"`
	CompetitorUses bool   `json:"competitor_uses"`
	UserUses       bool   `json:"user_uses"`
}

// FormatDiff holds normalized format-usage frequency per side.
type FormatDiff struct {
	Format         string  `json:"format"`
	CompetitorFreq float64 `json:"competitor_freq"`
	UserFreq       float64 `json:"user_freq"`
}

// CompetitorComparison is the derived gap artifact, upserted per
// (user, competitor) and superseded on each re-run. Positive gaps mean the
// competitor is ahead.
type CompetitorComparison struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	CompetitorID        uuid.UUID
	ReportID            *uuid.UUID
	EngagementGap       float64 // percentage points
	FollowerGap         int
	PostingFrequencyGap float64
	HashtagDifferences  []HashtagDiff
	FormatDifferences   []FormatDiff
	CaptionLengthDiff   int
	TacticalActions     []TacticalAction
	CreatedAt           time.Time
}
