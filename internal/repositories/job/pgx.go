package job

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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("JobRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

var jobColumns = []string{
	"id", "user_id", "account_id", "status", "progress", "current_step",
	"posts_fetched", "posts_analyzed", "error_message", "started_at",
	"completed_at", "created_at",
}

func (p *Pgx) Create(ctx context.Context, job domain.AnalysisJob) (uuid.UUID, error) {
	query, args, err := repositories.SqBuilder.
		Insert("analysis_jobs").
		Columns("user_id", "account_id", "status", "progress", "current_step").
		Values(job.UserID, job.AccountID, domain.JobStatusPending, 0, job.CurrentStep).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, repositories.ErrBadQuery
	}

	var id uuid.UUID
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, ErrInFlightExists
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (p *Pgx) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisJob, error) {
	query, args, err := repositories.SqBuilder.
		Select(jobColumns...).
		From("analysis_jobs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}
	return p.scanOne(ctx, query, args)
}

func (p *Pgx) FindInFlightByAccount(ctx context.Context, accountID uuid.UUID) (*domain.AnalysisJob, error) {
	query, args, err := repositories.SqBuilder.
		Select(jobColumns...).
		From("analysis_jobs").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.Eq{"status": []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}
	return p.scanOne(ctx, query, args)
}

func (p *Pgx) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query, args, err := repositories.SqBuilder.
		Update("analysis_jobs").
		Set("status", domain.JobStatusProcessing).
		Set("started_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "status": domain.JobStatusPending}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) UpdateProgress(ctx context.Context, id uuid.UUID, progress int, step string) error {
	// progress is monotonically non-decreasing within a run
	query, args, err := repositories.SqBuilder.
		Update("analysis_jobs").
		Set("progress", progress).
		Set("current_step", step).
		Where(sq.Eq{"id": id}).
		Where(sq.LtOrEq{"progress": progress}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) SetPostsFetched(ctx context.Context, id uuid.UUID, count int) error {
	query, args, err := repositories.SqBuilder.
		Update("analysis_jobs").
		Set("posts_fetched", count).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) Complete(ctx context.Context, id uuid.UUID, postsAnalyzed int) error {
	query, args, err := repositories.SqBuilder.
		Update("analysis_jobs").
		Set("status", domain.JobStatusCompleted).
		Set("progress", 100).
		Set("current_step", "Analysis complete").
		Set("posts_analyzed", postsAnalyzed).
		Set("completed_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "status": domain.JobStatusProcessing}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) Fail(ctx context.Context, id uuid.UUID, message string) error {
	query, args, err := repositories.SqBuilder.
		Update("analysis_jobs").
		Set("status", domain.JobStatusFailed).
		Set("error_message", message).
		Set("completed_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) scanOne(ctx context.Context, query string, args []any) (*domain.AnalysisJob, error) {
	var j domain.AnalysisJob
	var step, errMsg *string
	err := p.pg.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.UserID, &j.AccountID, &j.Status, &j.Progress, &step,
		&j.PostsFetched, &j.PostsAnalyzed, &errMsg, &j.StartedAt,
		&j.CompletedAt, &j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if step != nil {
		j.CurrentStep = *step
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}
