package post

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost(platformPostID string) domain.Post {
	return domain.Post{
		AccountID:      uuid.New(),
		PlatformPostID: platformPostID,
		ContentType:    domain.ContentTypeReel,
		Caption:        "morning routine",
		Hashtags:       []string{"#fitness"},
		Likes:          100,
		Comments:       10,
		Views:          2000,
		Reach:          2000,
		EngagementRate: 0.055,
		PostedAt:       time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestUpsertBatchQueryConflictsOnPlatformPostID(t *testing.T) {
	query, args, err := upsertBatchQuery([]domain.Post{
		samplePost("p1"),
		samplePost("p2"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO posts"))
	assert.Contains(t, query, "ON CONFLICT (account_id, platform_post_id) DO UPDATE SET")
	assert.Contains(t, query, "engagement_rate = EXCLUDED.engagement_rate")
	assert.Contains(t, query, "views = EXCLUDED.views")

	// 17 bound columns per row, two rows
	assert.Len(t, args, 34)
	assert.Contains(t, query, "$34")
	assert.NotContains(t, query, "$35")
}

func TestUpsertBatchQueryNeverUpdatesIdentityColumns(t *testing.T) {
	query, _, err := upsertBatchQuery([]domain.Post{samplePost("p1")})
	require.NoError(t, err)

	_, update, found := strings.Cut(query, "DO UPDATE SET")
	require.True(t, found)
	assert.NotContains(t, update, "account_id =")
	assert.NotContains(t, update, "platform_post_id =")
	assert.NotContains(t, update, "posted_at =")
}

func TestUpsertBatchEmptyInputIsNoop(t *testing.T) {
	// nil pool: any query attempt would panic
	repo := &Pgx{}
	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
}
