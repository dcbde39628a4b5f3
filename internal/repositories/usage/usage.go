package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// Plan is the billing-owned usage snapshot the core consults before
// accepting a job.
type Plan struct {
	Name          string
	AnalysesUsed  int
	AnalysesLimit int
}

// Exhausted reports whether a metered plan has no analyses left.
func (p Plan) Exhausted() bool {
	return p.Name == "free" && p.AnalysesUsed >= p.AnalysesLimit
}

//go:generate go run go.uber.org/mock/mockgen -source=usage.go -destination=mocks/mock.go
type Repository interface {
	GetPlan(ctx context.Context, userID uuid.UUID) (Plan, error)

	// IncrementAnalysesUsed bumps the counter atomically so concurrent jobs
	// never lose an update.
	IncrementAnalysesUsed(ctx context.Context, userID uuid.UUID) error
}
