package competitor

import (
	"context"
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
		logger: logger.WithComponent("CompetitorRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var competitorColumns = []string{
	"id", "user_id", "platform", "username", "followers",
	"avg_engagement_rate", "posts_per_week", "top_hashtags",
	"content_formats", "niche", "last_refreshed_at", "created_at",
}

func (p *Pgx) GetByID(ctx context.Context, id uuid.UUID) (*domain.Competitor, error) {
	query, args, err := repositories.SqBuilder.
		Select(competitorColumns...).
		From("competitors").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	c, err := p.scanRow(p.pg.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (p *Pgx) ListStale(ctx context.Context, olderThan time.Time) ([]*domain.Competitor, error) {
	query, args, err := repositories.SqBuilder.
		Select(competitorColumns...).
		From("competitors").
		Where(sq.Or{
			sq.Eq{"last_refreshed_at": nil},
			sq.Lt{"last_refreshed_at": olderThan},
		}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Competitor
	for rows.Next() {
		c, err := p.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Pgx) UpdateSnapshot(ctx context.Context, id uuid.UUID, c domain.Competitor) error {
	query, args, err := repositories.SqBuilder.
		Update("competitors").
		Set("followers", c.Followers).
		Set("avg_engagement_rate", c.AvgEngagementRate).
		Set("posts_per_week", c.PostsPerWeek).
		Set("top_hashtags", c.TopHashtags).
		Set("content_formats", c.ContentFormats).
		Set("niche", c.Niche).
		Set("last_refreshed_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) scanRow(row pgx.Row) (*domain.Competitor, error) {
	var c domain.Competitor
	var niche *string
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Platform, &c.Username, &c.Followers,
		&c.AvgEngagementRate, &c.PostsPerWeek, &c.TopHashtags,
		&c.ContentFormats, &niche, &c.LastRefreshedAt, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if niche != nil {
		c.Niche = *niche
	}
	return &c, nil
}
