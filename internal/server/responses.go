package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

type reportResponse struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	AccountID uuid.UUID `json:"account_id"`

	GrowthScore         int `json:"growth_score"`
	ContentQualityScore int `json:"content_quality_score"`
	HashtagScore        int `json:"hashtag_score"`
	EngagementScore     int `json:"engagement_score"`
	ConsistencyScore    int `json:"consistency_score"`
	BrandingScore       int `json:"branding_score"`
	HookStrengthScore   int `json:"hook_strength_score"`
	CTAScore            int `json:"cta_score"`

	DetectedNiche   string                `json:"detected_niche"`
	NicheConfidence float64               `json:"niche_confidence"`
	NicheKeywords   []string              `json:"niche_keywords"`
	ContentThemes   []domain.ContentTheme `json:"content_themes"`

	HashtagEffectiveness []domain.HashtagAnalysis `json:"hashtag_effectiveness"`
	RecommendedHashtags  []string                 `json:"recommended_hashtags"`
	OverusedHashtags     []string                 `json:"overused_hashtags"`
	UnderusedHashtags    []string                 `json:"underused_hashtags"`

	AvgPostsPerWeek    float64  `json:"avg_posts_per_week"`
	BestDays           []string `json:"best_posting_days"`
	BestHours          []int    `json:"best_posting_hours"`
	PostingConsistency float64  `json:"posting_consistency"`

	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgLikes          int     `json:"avg_likes"`
	AvgComments       int     `json:"avg_comments"`
	AvgShares         int     `json:"avg_shares"`
	AvgViews          int     `json:"avg_views"`

	TopPerformingFormats []domain.ContentType `json:"top_performing_formats"`
	AvgHookScore         float64              `json:"avg_hook_score"`
	CTAUsageRate         float64              `json:"cta_usage_rate"`
	CaptionSentiment     string               `json:"caption_sentiment"`
	AvgCaptionLength     int                  `json:"avg_caption_length"`

	Strengths          []domain.Insight       `json:"strengths"`
	Weaknesses         []domain.Insight       `json:"weaknesses"`
	Opportunities      []domain.Insight       `json:"opportunities"`
	ImprovementRoadmap []domain.RoadmapAction `json:"improvement_roadmap"`
	ExecutiveSummary   string                 `json:"executive_summary"`

	TopPosts   []domain.PostRef `json:"top_posts"`
	WorstPosts []domain.PostRef `json:"worst_posts"`

	CreatedAt time.Time `json:"created_at"`
}

func toReportResponse(rpt *domain.AnalysisReport) reportResponse {
	return reportResponse{
		ID:                   rpt.ID,
		JobID:                rpt.JobID,
		AccountID:            rpt.AccountID,
		GrowthScore:          rpt.GrowthScore,
		ContentQualityScore:  rpt.ContentQualityScore,
		HashtagScore:         rpt.HashtagScore,
		EngagementScore:      rpt.EngagementScore,
		ConsistencyScore:     rpt.ConsistencyScore,
		BrandingScore:        rpt.BrandingScore,
		HookStrengthScore:    rpt.HookStrengthScore,
		CTAScore:             rpt.CTAScore,
		DetectedNiche:        rpt.DetectedNiche,
		NicheConfidence:      rpt.NicheConfidence,
		NicheKeywords:        rpt.NicheKeywords,
		ContentThemes:        rpt.ContentThemes,
		HashtagEffectiveness: rpt.HashtagEffectiveness,
		RecommendedHashtags:  rpt.RecommendedHashtags,
		OverusedHashtags:     rpt.OverusedHashtags,
		UnderusedHashtags:    rpt.UnderusedHashtags,
		AvgPostsPerWeek:      rpt.AvgPostsPerWeek,
		BestDays:             rpt.BestDays,
		BestHours:            rpt.BestHours,
		PostingConsistency:   rpt.PostingConsistency,
		AvgEngagementRate:    rpt.AvgEngagementRate,
		AvgLikes:             rpt.AvgLikes,
		AvgComments:          rpt.AvgComments,
		AvgShares:            rpt.AvgShares,
		AvgViews:             rpt.AvgViews,
		TopPerformingFormats: rpt.TopPerformingFormats,
		AvgHookScore:         rpt.AvgHookScore,
		CTAUsageRate:         rpt.CTAUsageRate,
		CaptionSentiment:     rpt.CaptionSentiment,
		AvgCaptionLength:     rpt.AvgCaptionLength,
		Strengths:            rpt.Strengths,
		Weaknesses:           rpt.Weaknesses,
		Opportunities:        rpt.Opportunities,
		ImprovementRoadmap:   rpt.ImprovementRoadmap,
		ExecutiveSummary:     rpt.ExecutiveSummary,
		TopPosts:             rpt.TopPosts,
		WorstPosts:           rpt.WorstPosts,
		CreatedAt:            rpt.CreatedAt,
	}
}

type comparisonResponse struct {
	ID                  uuid.UUID               `json:"id"`
	CompetitorID        uuid.UUID               `json:"competitor_id"`
	ReportID            *uuid.UUID              `json:"report_id,omitempty"`
	EngagementGap       float64                 `json:"engagement_gap"`
	FollowerGap         int                     `json:"follower_gap"`
	PostingFrequencyGap float64                 `json:"posting_frequency_gap"`
	HashtagDifferences  []domain.HashtagDiff    `json:"hashtag_differences"`
	FormatDifferences   []domain.FormatDiff     `json:"format_differences"`
	CaptionLengthDiff   int                     `json:"caption_length_diff"`
	TacticalActions     []domain.TacticalAction `json:"tactical_actions"`
	CreatedAt           time.Time               `json:"created_at"`
}

func toComparisonResponse(cmp *domain.CompetitorComparison) comparisonResponse {
	return comparisonResponse{
		ID:                  cmp.ID,
		CompetitorID:        cmp.CompetitorID,
		ReportID:            cmp.ReportID,
		EngagementGap:       cmp.EngagementGap,
		FollowerGap:         cmp.FollowerGap,
		PostingFrequencyGap: cmp.PostingFrequencyGap,
		HashtagDifferences:  cmp.HashtagDifferences,
		FormatDifferences:   cmp.FormatDifferences,
		CaptionLengthDiff:   cmp.CaptionLengthDiff,
		TacticalActions:     cmp.TacticalActions,
		CreatedAt:           cmp.CreatedAt,
	}
}
