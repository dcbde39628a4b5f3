package usage

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
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
		logger: logger.WithComponent("UsageRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func (p *Pgx) GetPlan(ctx context.Context, userID uuid.UUID) (Plan, error) {
	query, args, err := repositories.SqBuilder.
		Select("plan", "analyses_used", "analyses_limit").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return Plan{}, repositories.ErrBadQuery
	}

	var plan Plan
	err = p.pg.QueryRow(ctx, query, args...).Scan(&plan.Name, &plan.AnalysesUsed, &plan.AnalysesLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	return plan, nil
}

func (p *Pgx) IncrementAnalysesUsed(ctx context.Context, userID uuid.UUID) error {
	query, args, err := repositories.SqBuilder.
		Update("users").
		Set("analyses_used", sq.Expr("analyses_used + 1")).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}
