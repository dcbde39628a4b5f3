package competitor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var ErrNotFound = errors.New("competitor not found")

//go:generate go run go.uber.org/mock/mockgen -source=competitor.go -destination=mocks/mock.go
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Competitor, error)

	// ListStale returns competitors whose snapshot is older than the cutoff
	// (or never refreshed), for the scheduled refresh job.
	ListStale(ctx context.Context, olderThan time.Time) ([]*domain.Competitor, error)

	// UpdateSnapshot stores a freshly scraped profile snapshot.
	UpdateSnapshot(ctx context.Context, id uuid.UUID, c domain.Competitor) error
}
