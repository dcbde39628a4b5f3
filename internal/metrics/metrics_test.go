package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postAt(t time.Time, rate float64) domain.Post {
	return domain.Post{ID: uuid.New(), PostedAt: t, EngagementRate: rate}
}

func TestEngagementScoreGolden(t *testing.T) {
	cfg := DefaultConfig()

	// 8% on TikTok against the 6% benchmark caps out at 100.
	assert.Equal(t, 100, cfg.EngagementScore(domain.PlatformTikTok, 0.08))

	// Exactly on benchmark earns 80.
	assert.Equal(t, 80, cfg.EngagementScore(domain.PlatformTikTok, 0.06))

	// Zero rate keeps the 20 point floor.
	assert.Equal(t, 20, cfg.EngagementScore(domain.PlatformInstagram, 0))
}

func TestEngagementScoreMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev := -1
	for _, rate := range []float64{0, 0.01, 0.02, 0.04, 0.06, 0.10, 0.50} {
		score := cfg.EngagementScore(domain.PlatformYouTube, rate)
		assert.GreaterOrEqual(t, score, prev, "rate %v", rate)
		assert.LessOrEqual(t, score, 100)
		prev = score
	}
}

func TestConsistencyScoreNeedsFourPosts(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	posts := []domain.Post{
		postAt(base, 0.05),
		postAt(base.AddDate(0, 0, 2), 0.05),
		postAt(base.AddDate(0, 0, 4), 0.05),
	}
	assert.Equal(t, 0, cfg.ConsistencyScore(posts))
}

func TestConsistencyScoreRegularBeatsIrregular(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	regular := []domain.Post{
		postAt(base, 0),
		postAt(base.AddDate(0, 0, 3), 0),
		postAt(base.AddDate(0, 0, 6), 0),
		postAt(base.AddDate(0, 0, 9), 0),
		postAt(base.AddDate(0, 0, 12), 0),
	}
	// same post count and same mean gap (3 days) but lumpy
	irregular := []domain.Post{
		postAt(base, 0),
		postAt(base.AddDate(0, 0, 1), 0),
		postAt(base.AddDate(0, 0, 2), 0),
		postAt(base.AddDate(0, 0, 3), 0),
		postAt(base.AddDate(0, 0, 12), 0),
	}

	regScore := cfg.ConsistencyScore(regular)
	irrScore := cfg.ConsistencyScore(irregular)

	assert.Equal(t, 100, regScore)
	assert.Greater(t, regScore, irrScore)
	assert.GreaterOrEqual(t, irrScore, 0)
}

func TestConsistencyScoreUnsortedInput(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	shuffled := []domain.Post{
		postAt(base.AddDate(0, 0, 6), 0),
		postAt(base, 0),
		postAt(base.AddDate(0, 0, 9), 0),
		postAt(base.AddDate(0, 0, 3), 0),
	}
	assert.Equal(t, 100, cfg.ConsistencyScore(shuffled))
}

func TestConsistencyScoreIdenticalTimestamps(t *testing.T) {
	cfg := DefaultConfig()
	when := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// bulk import can land every post on the same instant; the zero
	// mean gap must not divide
	same := []domain.Post{
		postAt(when, 0.05),
		postAt(when, 0.04),
		postAt(when, 0.03),
		postAt(when, 0.06),
		postAt(when, 0.02),
	}
	assert.Equal(t, 100, cfg.ConsistencyScore(same))
}

func TestHashtagScoreGolden(t *testing.T) {
	cfg := DefaultConfig()

	// 10 posts, 8 tags each, 20 distinct tags overall:
	// 50 baseline +8 variety +20 volume +15 any = 93.
	posts := make([]domain.Post, 10)
	for i := range posts {
		tags := make([]string, 8)
		for j := range tags {
			tags[j] = fmt.Sprintf("tag%d", (i*2+j)%20)
		}
		posts[i] = domain.Post{Hashtags: tags}
	}
	assert.Equal(t, 93, cfg.HashtagScore(posts))
}

func TestHashtagScoreLadder(t *testing.T) {
	cfg := DefaultConfig()

	// No hashtags at all stays at the bare baseline.
	assert.Equal(t, 50, cfg.HashtagScore([]domain.Post{{}, {}}))

	// Tag stuffing: 20 tags/post loses the volume bonus and takes the
	// penalty, but wide variety still earns its bonus.
	stuffed := make([]domain.Post, 5)
	for i := range stuffed {
		tags := make([]string, 20)
		for j := range tags {
			tags[j] = fmt.Sprintf("t%d-%d", i, j)
		}
		stuffed[i] = domain.Post{Hashtags: tags}
	}
	// 50 +15 (100 unique) -5 (volume) +15 (any) = 75
	assert.Equal(t, 75, cfg.HashtagScore(stuffed))

	// Light usage: 4 tags/post, 4 unique.
	light := []domain.Post{
		{Hashtags: []string{"a", "b", "c", "d"}},
		{Hashtags: []string{"a", "b", "c", "d"}},
	}
	// 50 +0 +10 +15 = 75
	assert.Equal(t, 75, cfg.HashtagScore(light))

	assert.Equal(t, 50, cfg.HashtagScore(nil))
}

func TestGrowthScoreWeights(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.GrowthScore(100, 100, 100, 100, 100))
	assert.Equal(t, 0, cfg.GrowthScore(0, 0, 0, 0, 0))

	// 80*.30 + 60*.25 + 93*.15 + 100*.15 + 70*.15 = 78.45 -> 78
	assert.Equal(t, 78, cfg.GrowthScore(80, 60, 93, 100, 70))
}

func TestContentQualityScore(t *testing.T) {
	cfg := DefaultConfig()

	// 0.7*40 + 0.5*30 + 80/100*30 = 28 + 15 + 24 = 67
	assert.Equal(t, 67, cfg.ContentQualityScore(0.7, 0.5, 80))
	assert.Equal(t, 100, cfg.ContentQualityScore(1, 1, 100))
	assert.Equal(t, 0, cfg.ContentQualityScore(0, 0, 0))
}

func TestBrandingScore(t *testing.T) {
	cfg := DefaultConfig()

	// 80*0.6 + 0.9*100*0.4 = 48 + 36 = 84
	assert.Equal(t, 84, cfg.BrandingScore(80, 0.9))
	assert.Equal(t, 0, cfg.BrandingScore(0, 0))
	assert.Equal(t, 100, cfg.BrandingScore(100, 1))
}

func TestPostingCadence(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// 26 posts inside the trailing 90 days, all on Mondays at 18:00 except
	// a weaker Wednesday 09:00 cluster.
	var posts []domain.Post
	monday := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC) // a Monday
	for i := 0; i < 6; i++ {
		posts = append(posts, postAt(monday.AddDate(0, 0, 7*i), 0.08))
	}
	wednesday := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		posts = append(posts, postAt(wednesday.AddDate(0, 0, 7*i), 0.02))
	}

	c := PostingCadence(posts, now)

	require.NotEmpty(t, c.BestDays)
	assert.Equal(t, "Monday", c.BestDays[0])
	require.NotEmpty(t, c.BestHours)
	assert.Equal(t, 18, c.BestHours[0])

	// 12 posts / 13 weeks, rounded to one decimal.
	assert.InDelta(t, 0.9, c.PostsPerWeek, 0.001)
}

func TestPostingCadenceExcludesOldPosts(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	posts := []domain.Post{
		postAt(now.AddDate(0, 0, -10), 0.05),
		postAt(now.AddDate(0, 0, -200), 0.05), // outside trailing 90 days
	}

	c := PostingCadence(posts, now)
	assert.InDelta(t, 0.1, c.PostsPerWeek, 0.001)
}

func TestAggregate(t *testing.T) {
	posts := []domain.Post{
		{Likes: 100, Comments: 10, Shares: 4, Views: 1000, Caption: "hello", EngagementRate: 0.10},
		{Likes: 200, Comments: 30, Shares: 6, Views: 3000, Caption: "hi", EngagementRate: 0.06},
	}

	a := Aggregate(posts)
	assert.Equal(t, 150, a.AvgLikes)
	assert.Equal(t, 20, a.AvgComments)
	assert.Equal(t, 5, a.AvgShares)
	assert.Equal(t, 2000, a.AvgViews)
	assert.Equal(t, 3, a.AvgCaptionLength)
	assert.InDelta(t, 0.08, a.AvgEngagementRate, 1e-9)

	assert.Equal(t, Aggregates{}, Aggregate(nil))
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "positive", SentimentLabel(0.5))
	assert.Equal(t, "negative", SentimentLabel(-0.5))
	assert.Equal(t, "neutral", SentimentLabel(0.1))
	assert.Equal(t, "neutral", SentimentLabel(-0.2))
	assert.Equal(t, "neutral", SentimentLabel(0.2))
}

func TestTopFormats(t *testing.T) {
	posts := []domain.Post{
		{ContentType: domain.ContentTypeReel, EngagementRate: 0.09},
		{ContentType: domain.ContentTypeReel, EngagementRate: 0.07},
		{ContentType: domain.ContentTypePost, EngagementRate: 0.02},
	}

	formats := TopFormats(posts)
	require.Len(t, formats, 2)
	assert.Equal(t, domain.ContentTypeReel, formats[0])
}

func TestTopAndWorstPosts(t *testing.T) {
	var posts []domain.Post
	for i := 0; i < 8; i++ {
		posts = append(posts, domain.Post{ID: uuid.New(), EngagementRate: float64(i) / 100})
	}

	top := TopPosts(posts)
	require.Len(t, top, 5)
	assert.Equal(t, posts[7].ID, top[0].PostID)

	worst := WorstPosts(posts)
	require.Len(t, worst, 3)
	assert.Equal(t, posts[0].ID, worst[0].PostID)

	assert.Len(t, TopPosts(posts[:2]), 2)
	assert.Len(t, WorstPosts(posts[:2]), 2)
}
