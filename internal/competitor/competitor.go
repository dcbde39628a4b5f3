// Package competitor runs the gap analysis between a user's latest report
// and a tracked competitor's profile snapshot.
package competitor

import (
	"context"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=competitor.go -destination=mocks/mock.go
type Service interface {
	// Compare computes and upserts the gap analysis for the pair. When
	// persistence fails the computed result is still returned.
	Compare(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error)

	// GetComparison returns the stored comparison for the pair.
	GetComparison(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error)

	// RefreshStaleSnapshots re-scrapes competitor profiles whose snapshot
	// has aged past the configured cadence.
	RefreshStaleSnapshots(ctx context.Context) error
}
