package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var ErrNotFound = errors.New("analysis report not found")

//go:generate go run go.uber.org/mock/mockgen -source=report.go -destination=mocks/mock.go
type Repository interface {
	// Create writes the report once. Reports are never updated or deleted.
	Create(ctx context.Context, report domain.AnalysisReport) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisReport, error)

	GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisReport, error)

	// LatestByUser returns the most recent report across the user's accounts.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.AnalysisReport, error)

	// UserIDsWithReportsSince lists users with at least one report newer than
	// the cutoff, for digest dispatch.
	UserIDsWithReportsSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}
