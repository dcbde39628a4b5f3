package post

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

var ErrNotFound = errors.New("post not found")

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go
type Repository interface {
	// UpsertBatch inserts posts keyed by (account_id, platform_post_id),
	// refreshing counters on conflict. Re-running a fetch never duplicates rows.
	UpsertBatch(ctx context.Context, posts []domain.Post) error

	// ListRecentByAccount returns the newest posts by posted_at.
	ListRecentByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Post, error)
}
