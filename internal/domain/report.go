package domain

import (
	"time"

	"github.com/google/uuid"
)

// Insight is one AI-authored strength, weakness or opportunity.
type Insight struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         string `json:"impact"` // high | medium | low
	Metric         string `json:"metric,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// RoadmapAction is one prioritized step of the improvement roadmap.
type RoadmapAction struct {
	Priority       int    `json:"priority"`
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
	Timeframe      string `json:"timeframe"`
	Category       string `json:"category"` // content | hashtags | posting | engagement | branding
}

// ContentTheme is one detected recurring topic across the analyzed posts.
type ContentTheme struct {
	Theme             string  `json:"theme"`
	Frequency         int     `json:"frequency"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	IsDominant        bool    `json:"is_dominant"`
}

// HashtagAnalysis is the per-tag effectiveness verdict.
type HashtagAnalysis struct {
	Tag                  string  `json:"tag"`
	ReachScore           int     `json:"reach_score"`
	Competition          string  `json:"competition"` // low | medium | high
	Relevance            float64 `json:"relevance"`
	Recommendation       string  `json:"recommendation"` // keep | replace | add
	SuggestedAlternative string  `json:"suggested_alternative,omitempty"`
}

// PostRef points at a notable post with the reason it stood out.
type PostRef struct {
	PostID uuid.UUID `json:"post_id"`
	Reason string    `json:"reason"`
	Metric string    `json:"metric"`
}

// AnalysisReport is the terminal artifact of one completed job. Exactly one
// per job, immutable once written; re-analysis writes a new report so score
// history stays valid.
type AnalysisReport struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	AccountID uuid.UUID
	UserID    uuid.UUID

	// Composite and component scores, all 0-100.
	GrowthScore         int
	ContentQualityScore int
	HashtagScore        int
	EngagementScore     int
	ConsistencyScore    int
	BrandingScore       int
	HookStrengthScore   int
	CTAScore            int

	DetectedNiche   string
	NicheConfidence float64
	NicheKeywords   []string
	ContentThemes   []ContentTheme

	HashtagEffectiveness []HashtagAnalysis
	RecommendedHashtags  []string
	OverusedHashtags     []string
	UnderusedHashtags    []string

	AvgPostsPerWeek    float64
	BestDays           []string
	BestHours          []int
	PostingConsistency float64 // 0-1 fraction

	AvgEngagementRate float64
	AvgLikes          int
	AvgComments       int
	AvgShares         int
	AvgViews          int

	TopPerformingFormats []ContentType
	AvgHookScore         float64 // 0-1 fraction
	CTAUsageRate         float64 // 0-1 fraction
	CaptionSentiment     string
	AvgCaptionLength     int

	Strengths          []Insight
	Weaknesses         []Insight
	Opportunities      []Insight
	ImprovementRoadmap []RoadmapAction
	ExecutiveSummary   string

	TopPosts   []PostRef
	WorstPosts []PostRef

	CreatedAt time.Time
}
