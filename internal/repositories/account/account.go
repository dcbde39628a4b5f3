package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var ErrNotFound = errors.New("connected account not found")

//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=mocks/mock.go
type Repository interface {
	// GetByID returns the account including its token material.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectedAccount, error)

	// UpdateTokens atomically persists refreshed token material.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error

	// UpdateSnapshot refreshes the profile-level fields from a platform fetch.
	UpdateSnapshot(ctx context.Context, id uuid.UUID, snap domain.ProfileSnapshot) error

	// TouchLastSynced records a successful post fetch.
	TouchLastSynced(ctx context.Context, id uuid.UUID) error
}
