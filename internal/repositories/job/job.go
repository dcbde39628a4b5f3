package job

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var (
	ErrNotFound = errors.New("analysis job not found")

	// ErrInFlightExists signals the partial unique index rejected a second
	// pending/processing job for the same account.
	ErrInFlightExists = errors.New("analysis job already in flight for account")
)

//go:generate go run go.uber.org/mock/mockgen -source=job.go -destination=mocks/mock.go
type Repository interface {
	// Create inserts a pending job. Returns ErrInFlightExists when another
	// job already occupies the account's in-flight slot.
	Create(ctx context.Context, job domain.AnalysisJob) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisJob, error)

	// FindInFlightByAccount returns the pending/processing job for the
	// account, or ErrNotFound.
	FindInFlightByAccount(ctx context.Context, accountID uuid.UUID) (*domain.AnalysisJob, error)

	// MarkProcessing performs the pending -> processing transition and sets
	// started_at.
	MarkProcessing(ctx context.Context, id uuid.UUID) error

	// UpdateProgress writes a progress checkpoint and step label. Writes are
	// guarded so an earlier checkpoint can never overwrite a later one.
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int, step string) error

	SetPostsFetched(ctx context.Context, id uuid.UUID, count int) error

	// Complete marks the job completed at progress 100 with completed_at set.
	Complete(ctx context.Context, id uuid.UUID, postsAnalyzed int) error

	// Fail marks the job failed, recording the error message verbatim.
	Fail(ctx context.Context, id uuid.UUID, message string) error
}
