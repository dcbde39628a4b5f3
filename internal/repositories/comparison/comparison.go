package comparison

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var ErrNotFound = errors.New("competitor comparison not found")

//go:generate go run go.uber.org/mock/mockgen -source=comparison.go -destination=mocks/mock.go
type Repository interface {
	// Upsert supersedes any prior comparison for the (user, competitor) pair
	// and returns the stored row.
	Upsert(ctx context.Context, c domain.CompetitorComparison) (*domain.CompetitorComparison, error)

	GetByUserAndCompetitor(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error)
}
