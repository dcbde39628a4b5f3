// Package intelligence wraps the LLM used for niche detection, hashtag
// evaluation, narrative insight generation and content generation.
package intelligence

import (
	"context"
	"encoding/json"

	"github.com/growthlens/growthlens/internal/domain"
)

// NicheResult is the structured output of niche and theme detection.
type NicheResult struct {
	Niche      string                `json:"niche"`
	Confidence float64               `json:"confidence"`
	Keywords   []string              `json:"keywords"`
	Themes     []domain.ContentTheme `json:"themes"`
}

// InsightsInput carries every computed metric the insight stage feeds the
// model. All fraction fields are 0-1.
type InsightsInput struct {
	Platform           domain.Platform
	Niche              string
	AvgEngagementRate  float64
	AvgHookScore       float64
	CTAUsageRate       float64
	PostingConsistency float64
	HashtagScore       int
	BrandingScore      int
	ContentThemes      []domain.ContentTheme
	TopFormats         []domain.ContentType
	BestDays           []string
	BestHours          []int
	AvgPostsPerWeek    float64
}

// InsightsResult is the AI-authored narrative section of a report.
type InsightsResult struct {
	Strengths        []domain.Insight       `json:"strengths"`
	Weaknesses       []domain.Insight       `json:"weaknesses"`
	Opportunities    []domain.Insight       `json:"opportunities"`
	Roadmap          []domain.RoadmapAction `json:"roadmap"`
	ExecutiveSummary string                 `json:"executive_summary"`
}

// HookResult rates the opening seconds of a single piece of content.
type HookResult struct {
	Score    float64 `json:"score"`
	HookText string  `json:"hook_text"`
	HookType string  `json:"hook_type"`
	Feedback string  `json:"feedback"`
}

// GenerateRequest asks for new content drafts in the creator's niche.
type GenerateRequest struct {
	Platform       domain.Platform `json:"platform"`
	ContentType    string          `json:"content_type"` // hook | caption | script | idea | hashtags | full_plan
	Topic          string          `json:"topic"`
	Niche          string          `json:"niche"`
	Tone           string          `json:"tone,omitempty"`
	TargetAudience string          `json:"target_audience,omitempty"`
	Count          int             `json:"count,omitempty"`
}

// GenerateContext is optional account context threaded into generation.
type GenerateContext struct {
	Niche         string
	TopThemes     []string
	AvgEngagement float64
}

//go:generate go run go.uber.org/mock/mockgen -source=intelligence.go -destination=mocks/mock.go
type Client interface {
	// DetectNiche identifies the creator's niche and recurring themes from
	// a capped sample of posts.
	DetectNiche(ctx context.Context, posts []domain.Post) (NicheResult, error)

	// AnalyzeHashtags evaluates the account's historical tags, capped to
	// the thirty most used.
	AnalyzeHashtags(ctx context.Context, hashtags []string, niche string, platform domain.Platform) ([]domain.HashtagAnalysis, error)

	// GenerateInsights authors the strengths, weaknesses, opportunities,
	// roadmap and executive summary from the computed metrics.
	GenerateInsights(ctx context.Context, in InsightsInput) (InsightsResult, error)

	// ScoreHook rates a single caption's opening hook. Used as the
	// fallback when the NLP service is unavailable.
	ScoreHook(ctx context.Context, caption string) (HookResult, error)

	// GenerateContent drafts hooks, captions, scripts, ideas or hashtag
	// sets. The shape of the JSON depends on the requested content type.
	GenerateContent(ctx context.Context, req GenerateRequest, accountCtx *GenerateContext) (json.RawMessage, error)
}
