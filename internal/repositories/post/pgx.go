package post

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/repositories"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var postColumns = []string{
	"id", "account_id", "platform_post_id", "content_type", "caption",
	"hashtags", "mentions", "media_url", "thumbnail_url", "duration_seconds",
	"likes", "comments", "shares", "saves", "views", "reach",
	"engagement_rate", "posted_at",
}

func (p *Pgx) UpsertBatch(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	query, args, err := upsertBatchQuery(posts)
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

// upsertBatchQuery builds one multi-row insert keyed on
// (account_id, platform_post_id) so a re-fetch refreshes counters
// in place instead of duplicating rows.
func upsertBatchQuery(posts []domain.Post) (string, []any, error) {
	builder := repositories.SqBuilder.
		Insert("posts").
		Columns(
			"account_id", "platform_post_id", "content_type", "caption",
			"hashtags", "mentions", "media_url", "thumbnail_url",
			"duration_seconds", "likes", "comments", "shares", "saves",
			"views", "reach", "engagement_rate", "posted_at",
		)

	for _, post := range posts {
		builder = builder.Values(
			post.AccountID, post.PlatformPostID, post.ContentType, post.Caption,
			post.Hashtags, post.Mentions, post.MediaURL, post.ThumbnailURL,
			post.DurationSeconds, post.Likes, post.Comments, post.Shares,
			post.Saves, post.Views, post.Reach, post.EngagementRate, post.PostedAt,
		)
	}

	return builder.
		Suffix(`ON CONFLICT (account_id, platform_post_id) DO UPDATE SET
			caption = EXCLUDED.caption,
			hashtags = EXCLUDED.hashtags,
			mentions = EXCLUDED.mentions,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			saves = EXCLUDED.saves,
			views = EXCLUDED.views,
			reach = EXCLUDED.reach,
			engagement_rate = EXCLUDED.engagement_rate`).
		ToSql()
}

func (p *Pgx) ListRecentByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select(postColumns...).
		From("posts").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("posted_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID, &post.AccountID, &post.PlatformPostID, &post.ContentType,
			&post.Caption, &post.Hashtags, &post.Mentions, &post.MediaURL,
			&post.ThumbnailURL, &post.DurationSeconds, &post.Likes, &post.Comments,
			&post.Shares, &post.Saves, &post.Views, &post.Reach,
			&post.EngagementRate, &post.PostedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
