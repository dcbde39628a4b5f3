package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/repositories"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("ReportRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var reportColumns = []string{
	"id", "job_id", "account_id", "user_id",
	"growth_score", "content_quality_score", "hashtag_score", "engagement_score",
	"consistency_score", "branding_score", "hook_strength_score", "cta_score",
	"detected_niche", "niche_confidence", "niche_keywords", "content_themes",
	"hashtag_effectiveness", "recommended_hashtags", "overused_hashtags", "underused_hashtags",
	"avg_posts_per_week", "best_days", "best_hours", "posting_consistency",
	"avg_engagement_rate", "avg_likes", "avg_comments", "avg_shares", "avg_views",
	"top_performing_formats", "avg_hook_score", "cta_usage_rate",
	"caption_sentiment", "avg_caption_length",
	"strengths", "weaknesses", "opportunities", "improvement_roadmap",
	"executive_summary", "top_posts", "worst_posts", "created_at",
}

func (p *Pgx) Create(ctx context.Context, r domain.AnalysisReport) (uuid.UUID, error) {
	themes, err := json.Marshal(r.ContentThemes)
	if err != nil {
		return uuid.Nil, err
	}
	effectiveness, err := json.Marshal(r.HashtagEffectiveness)
	if err != nil {
		return uuid.Nil, err
	}
	strengths, err := json.Marshal(r.Strengths)
	if err != nil {
		return uuid.Nil, err
	}
	weaknesses, err := json.Marshal(r.Weaknesses)
	if err != nil {
		return uuid.Nil, err
	}
	opportunities, err := json.Marshal(r.Opportunities)
	if err != nil {
		return uuid.Nil, err
	}
	roadmap, err := json.Marshal(r.ImprovementRoadmap)
	if err != nil {
		return uuid.Nil, err
	}
	topPosts, err := json.Marshal(r.TopPosts)
	if err != nil {
		return uuid.Nil, err
	}
	worstPosts, err := json.Marshal(r.WorstPosts)
	if err != nil {
		return uuid.Nil, err
	}

	formats := make([]string, 0, len(r.TopPerformingFormats))
	for _, f := range r.TopPerformingFormats {
		formats = append(formats, string(f))
	}

	query, args, err := repositories.SqBuilder.
		Insert("analysis_reports").
		Columns(reportColumns[1 : len(reportColumns)-1]...).
		Values(
			r.JobID, r.AccountID, r.UserID,
			r.GrowthScore, r.ContentQualityScore, r.HashtagScore, r.EngagementScore,
			r.ConsistencyScore, r.BrandingScore, r.HookStrengthScore, r.CTAScore,
			r.DetectedNiche, r.NicheConfidence, r.NicheKeywords, themes,
			effectiveness, r.RecommendedHashtags, r.OverusedHashtags, r.UnderusedHashtags,
			r.AvgPostsPerWeek, r.BestDays, r.BestHours, r.PostingConsistency,
			r.AvgEngagementRate, r.AvgLikes, r.AvgComments, r.AvgShares, r.AvgViews,
			formats, r.AvgHookScore, r.CTAUsageRate,
			r.CaptionSentiment, r.AvgCaptionLength,
			strengths, weaknesses, opportunities, roadmap,
			r.ExecutiveSummary, topPosts, worstPosts,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, repositories.ErrBadQuery
	}

	var id uuid.UUID
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (p *Pgx) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisReport, error) {
	return p.getOne(ctx, sq.Eq{"id": id})
}

func (p *Pgx) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisReport, error) {
	return p.getOne(ctx, sq.Eq{"job_id": jobID})
}

func (p *Pgx) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.AnalysisReport, error) {
	return p.getOne(ctx, sq.Eq{"user_id": userID})
}

func (p *Pgx) UserIDsWithReportsSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query, args, err := repositories.SqBuilder.
		Select("DISTINCT user_id").
		From("analysis_reports").
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Pgx) getOne(ctx context.Context, where sq.Eq) (*domain.AnalysisReport, error) {
	query, args, err := repositories.SqBuilder.
		Select(reportColumns...).
		From("analysis_reports").
		Where(where).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var r domain.AnalysisReport
	var themes, effectiveness, strengths, weaknesses, opportunities, roadmap, topPosts, worstPosts []byte
	var formats []string

	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.JobID, &r.AccountID, &r.UserID,
		&r.GrowthScore, &r.ContentQualityScore, &r.HashtagScore, &r.EngagementScore,
		&r.ConsistencyScore, &r.BrandingScore, &r.HookStrengthScore, &r.CTAScore,
		&r.DetectedNiche, &r.NicheConfidence, &r.NicheKeywords, &themes,
		&effectiveness, &r.RecommendedHashtags, &r.OverusedHashtags, &r.UnderusedHashtags,
		&r.AvgPostsPerWeek, &r.BestDays, &r.BestHours, &r.PostingConsistency,
		&r.AvgEngagementRate, &r.AvgLikes, &r.AvgComments, &r.AvgShares, &r.AvgViews,
		&formats, &r.AvgHookScore, &r.CTAUsageRate,
		&r.CaptionSentiment, &r.AvgCaptionLength,
		&strengths, &weaknesses, &opportunities, &roadmap,
		&r.ExecutiveSummary, &topPosts, &worstPosts, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	for raw, dst := range map[*[]byte]any{
		&themes:        &r.ContentThemes,
		&effectiveness: &r.HashtagEffectiveness,
		&strengths:     &r.Strengths,
		&weaknesses:    &r.Weaknesses,
		&opportunities: &r.Opportunities,
		&roadmap:       &r.ImprovementRoadmap,
		&topPosts:      &r.TopPosts,
		&worstPosts:    &r.WorstPosts,
	} {
		if len(*raw) == 0 {
			continue
		}
		if err := json.Unmarshal(*raw, dst); err != nil {
			return nil, err
		}
	}

	for _, f := range formats {
		r.TopPerformingFormats = append(r.TopPerformingFormats, domain.ContentType(f))
	}
	return &r, nil
}
