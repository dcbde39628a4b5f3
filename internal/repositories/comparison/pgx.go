package comparison

import (
	"context"
	"encoding/json"
	"errors"

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
		logger: logger.WithComponent("ComparisonRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var comparisonColumns = []string{
	"id", "user_id", "competitor_id", "report_id", "engagement_gap",
	"follower_gap", "posting_frequency_gap", "hashtag_differences",
	"format_differences", "caption_length_diff", "tactical_actions", "created_at",
}

func (p *Pgx) Upsert(ctx context.Context, c domain.CompetitorComparison) (*domain.CompetitorComparison, error) {
	hashtagDiffs, err := json.Marshal(c.HashtagDifferences)
	if err != nil {
		return nil, err
	}
	formatDiffs, err := json.Marshal(c.FormatDifferences)
	if err != nil {
		return nil, err
	}
	actions, err := json.Marshal(c.TacticalActions)
	if err != nil {
		return nil, err
	}

	query, args, err := repositories.SqBuilder.
		Insert("competitor_comparisons").
		Columns(
			"user_id", "competitor_id", "report_id", "engagement_gap",
			"follower_gap", "posting_frequency_gap", "hashtag_differences",
			"format_differences", "caption_length_diff", "tactical_actions",
		).
		Values(
			c.UserID, c.CompetitorID, c.ReportID, c.EngagementGap,
			c.FollowerGap, c.PostingFrequencyGap, hashtagDiffs,
			formatDiffs, c.CaptionLengthDiff, actions,
		).
		Suffix(`ON CONFLICT (user_id, competitor_id) DO UPDATE SET
			report_id = EXCLUDED.report_id,
			engagement_gap = EXCLUDED.engagement_gap,
			follower_gap = EXCLUDED.follower_gap,
			posting_frequency_gap = EXCLUDED.posting_frequency_gap,
			hashtag_differences = EXCLUDED.hashtag_differences,
			format_differences = EXCLUDED.format_differences,
			caption_length_diff = EXCLUDED.caption_length_diff,
			tactical_actions = EXCLUDED.tactical_actions,
			created_at = now()
		RETURNING id, created_at`).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	stored := c
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&stored.ID, &stored.CreatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (p *Pgx) GetByUserAndCompetitor(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error) {
	query, args, err := repositories.SqBuilder.
		Select(comparisonColumns...).
		From("competitor_comparisons").
		Where(sq.Eq{"user_id": userID, "competitor_id": competitorID}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var c domain.CompetitorComparison
	var hashtagDiffs, formatDiffs, actions []byte
	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.UserID, &c.CompetitorID, &c.ReportID, &c.EngagementGap,
		&c.FollowerGap, &c.PostingFrequencyGap, &hashtagDiffs,
		&formatDiffs, &c.CaptionLengthDiff, &actions, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(hashtagDiffs, &c.HashtagDifferences); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(formatDiffs, &c.FormatDifferences); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(actions, &c.TacticalActions); err != nil {
		return nil, err
	}
	return &c, nil
}
