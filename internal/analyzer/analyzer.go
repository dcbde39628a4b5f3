// Package analyzer owns the analysis pipeline: posts in, scored report out.
package analyzer

import (
	"context"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -source=analyzer.go -destination=mocks/mock.go
type Service interface {
	// Run executes the full pipeline for one job. Any stage failure marks
	// the job failed with the error message and returns the error.
	Run(ctx context.Context, jobID, accountID uuid.UUID, maxPosts int) error
}
