// Package nlp is the client for the companion NLP microservice that does
// the compute-heavy per-post analysis (hook detection, CTA detection,
// sentiment) and public competitor scraping. Every call is best-effort:
// callers fall back to the LLM path or the rule ladder on error.
package nlp

import (
	"context"

	"github.com/growthlens/growthlens/internal/domain"
)

// PostAnalysis is the per-post detail block the service returns.
type PostAnalysis struct {
	PostID         string   `json:"post_id"`
	Transcript     string   `json:"transcript"`
	HookScore      float64  `json:"hook_score"`
	HookText       string   `json:"hook_text"`
	HookType       string   `json:"hook_type"`
	CTADetected    bool     `json:"cta_detected"`
	SentimentScore float64  `json:"sentiment_score"`
	Keywords       []string `json:"keywords"`
}

// BatchResult aggregates the batch-level signals the analyzer consumes.
type BatchResult struct {
	HookScores      []float64      `json:"hook_scores"`
	SentimentScores []float64      `json:"sentiment_scores"`
	CTACount        int            `json:"cta_count"`
	PostAnalyses    []PostAnalysis `json:"post_analyses"`
}

// TacticalResult is the scraped competitor snapshot plus ranked actions.
type TacticalResult struct {
	CompetitorUsername     string                  `json:"competitor_username"`
	CompetitorFollowers    int                     `json:"competitor_followers"`
	CompetitorAvgEng       float64                 `json:"competitor_avg_engagement"`
	CompetitorPostsPerWeek float64                 `json:"competitor_posts_per_week"`
	CompetitorTopHashtags  []string                `json:"competitor_top_hashtags"`
	CompetitorAvgHookScore float64                 `json:"competitor_avg_hook_score"`
	EngagementGap          float64                 `json:"engagement_gap"`
	PostingFrequencyGap    float64                 `json:"posting_frequency_gap"`
	HashtagDifferences     []domain.HashtagDiff    `json:"hashtag_differences"`
	TacticalActions        []domain.TacticalAction `json:"tactical_actions"`
}

// TacticsInput describes the user side of a competitor comparison.
type TacticsInput struct {
	Platform           domain.Platform `json:"platform"`
	CompetitorUsername string          `json:"competitor_username"`
	UserEngagementRate float64         `json:"user_engagement_rate"`
	UserPostsPerWeek   float64         `json:"user_posts_per_week"`
	UserHashtags       []string        `json:"user_hashtags"`
}

// ScrapedProfile is a public profile snapshot for competitor tracking.
type ScrapedProfile struct {
	Username     string  `json:"username"`
	Followers    int     `json:"followers"`
	Following    int     `json:"following"`
	PostsPerWeek float64 `json:"posts_per_week"`
	AvgLikes     int     `json:"avg_likes"`
	AvgComments  int     `json:"avg_comments"`
	Engagement   float64 `json:"engagement_rate"`
	AvatarURL    string  `json:"avatar_url"`
	Bio          string  `json:"bio"`
}

//go:generate go run go.uber.org/mock/mockgen -source=nlp.go -destination=mocks/mock.go
type Client interface {
	// AnalyzePosts runs hook, CTA and sentiment analysis over a capped
	// batch of posts.
	AnalyzePosts(ctx context.Context, platform domain.Platform, posts []domain.Post) (BatchResult, error)

	// CompetitorTactics scrapes the competitor and computes gap-ranked
	// tactical actions.
	CompetitorTactics(ctx context.Context, in TacticsInput) (TacticalResult, error)

	// ScrapeProfile fetches a competitor's public profile snapshot.
	ScrapeProfile(ctx context.Context, platform domain.Platform, username string) (ScrapedProfile, error)
}
