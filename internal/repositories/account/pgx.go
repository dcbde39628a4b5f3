package account

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
		logger: logger.WithComponent("AccountRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var accountColumns = []string{
	"id", "user_id", "platform", "platform_user_id", "username", "display_name",
	"avatar_url", "followers", "following", "is_active", "access_token",
	"refresh_token", "token_expires_at", "last_synced_at", "created_at",
}

func (p *Pgx) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectedAccount, error) {
	query, args, err := repositories.SqBuilder.
		Select(accountColumns...).
		From("connected_accounts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var a domain.ConnectedAccount
	var refreshToken *string
	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.UserID, &a.Platform, &a.PlatformUserID, &a.Username,
		&a.DisplayName, &a.AvatarURL, &a.Followers, &a.Following, &a.IsActive,
		&a.AccessToken, &refreshToken, &a.TokenExpiresAt, &a.LastSyncedAt, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if refreshToken != nil {
		a.RefreshToken = *refreshToken
	}
	return &a, nil
}

func (p *Pgx) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	var refresh any
	if refreshToken != "" {
		refresh = refreshToken
	}

	query, args, err := repositories.SqBuilder.
		Update("connected_accounts").
		Set("access_token", accessToken).
		Set("refresh_token", refresh).
		Set("token_expires_at", expiresAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) UpdateSnapshot(ctx context.Context, id uuid.UUID, snap domain.ProfileSnapshot) error {
	query, args, err := repositories.SqBuilder.
		Update("connected_accounts").
		Set("username", snap.Username).
		Set("display_name", snap.DisplayName).
		Set("avatar_url", snap.AvatarURL).
		Set("followers", snap.Followers).
		Set("following", snap.Following).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) TouchLastSynced(ctx context.Context, id uuid.UUID) error {
	query, args, err := repositories.SqBuilder.
		Update("connected_accounts").
		Set("last_synced_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}
