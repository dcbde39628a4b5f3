package competitorimpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/nlp"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeCompetitorRepo struct {
	competitor *domain.Competitor
	stale      []*domain.Competitor
	snapshots  []domain.Competitor
}

func (f *fakeCompetitorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Competitor, error) {
	cp := *f.competitor
	return &cp, nil
}
func (f *fakeCompetitorRepo) ListStale(ctx context.Context, olderThan time.Time) ([]*domain.Competitor, error) {
	return f.stale, nil
}
func (f *fakeCompetitorRepo) UpdateSnapshot(ctx context.Context, id uuid.UUID, c domain.Competitor) error {
	f.snapshots = append(f.snapshots, c)
	return nil
}

type fakeComparisonRepo struct {
	upserted  *domain.CompetitorComparison
	upsertErr error
}

func (f *fakeComparisonRepo) Upsert(ctx context.Context, c domain.CompetitorComparison) (*domain.CompetitorComparison, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.upserted = &c
	return &c, nil
}
func (f *fakeComparisonRepo) GetByUserAndCompetitor(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error) {
	return f.upserted, nil
}

type fakeReportRepo struct {
	latest *domain.AnalysisReport
}

func (f *fakeReportRepo) Create(ctx context.Context, r domain.AnalysisReport) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (f *fakeReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisReport, error) {
	return nil, nil
}
func (f *fakeReportRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisReport, error) {
	return nil, nil
}
func (f *fakeReportRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.AnalysisReport, error) {
	if f.latest == nil {
		return nil, report.ErrNotFound
	}
	return f.latest, nil
}
func (f *fakeReportRepo) UserIDsWithReportsSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeAccountRepo struct {
	followers int
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectedAccount, error) {
	return &domain.ConnectedAccount{ID: id, Followers: f.followers}, nil
}
func (f *fakeAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, a, r string, e *time.Time) error {
	return nil
}
func (f *fakeAccountRepo) UpdateSnapshot(ctx context.Context, id uuid.UUID, snap domain.ProfileSnapshot) error {
	return nil
}
func (f *fakeAccountRepo) TouchLastSynced(ctx context.Context, id uuid.UUID) error { return nil }

type fakeNLP struct {
	tactics    nlp.TacticalResult
	tacticsErr error
	profiles   map[string]nlp.ScrapedProfile
	scrapeErr  error
}

func (f *fakeNLP) AnalyzePosts(ctx context.Context, p domain.Platform, posts []domain.Post) (nlp.BatchResult, error) {
	return nlp.BatchResult{}, nil
}
func (f *fakeNLP) CompetitorTactics(ctx context.Context, in nlp.TacticsInput) (nlp.TacticalResult, error) {
	if f.tacticsErr != nil {
		return nlp.TacticalResult{}, f.tacticsErr
	}
	return f.tactics, nil
}
func (f *fakeNLP) ScrapeProfile(ctx context.Context, p domain.Platform, username string) (nlp.ScrapedProfile, error) {
	if f.scrapeErr != nil {
		return nlp.ScrapedProfile{}, f.scrapeErr
	}
	return f.profiles[username], nil
}

// ---- helpers ----

type harness struct {
	svc         *ServiceImpl
	competitors *fakeCompetitorRepo
	comparisons *fakeComparisonRepo
	reports     *fakeReportRepo
	nlp         *fakeNLP
}

func newHarness(userID uuid.UUID) *harness {
	reportID := uuid.New()
	h := &harness{
		competitors: &fakeCompetitorRepo{
			competitor: &domain.Competitor{
				ID:                uuid.New(),
				UserID:            userID,
				Platform:          domain.PlatformTikTok,
				Username:          "rival",
				Followers:         50000,
				AvgEngagementRate: 0.05,
				PostsPerWeek:      5,
				TopHashtags:       []string{"fitness", "gymlife", "shred"},
				ContentFormats:    []string{"video", "live"},
			},
		},
		comparisons: &fakeComparisonRepo{},
		reports: &fakeReportRepo{
			latest: &domain.AnalysisReport{
				ID:                   reportID,
				AccountID:            uuid.New(),
				UserID:               userID,
				AvgEngagementRate:    0.03,
				AvgPostsPerWeek:      3,
				RecommendedHashtags:  []string{"fitness", "homeworkout"},
				TopPerformingFormats: []domain.ContentType{domain.ContentTypeVideo, domain.ContentTypePost},
			},
		},
		nlp: &fakeNLP{tacticsErr: errors.New("service down")},
	}

	cfg := &config.Config{}
	cfg.Competitor.RefreshHours = 24

	h.svc = &ServiceImpl{
		cfg:            cfg,
		logger:         logger.NewNop(),
		nlp:            h.nlp,
		accountRepo:    &fakeAccountRepo{followers: 8000},
		reportRepo:     h.reports,
		competitorRepo: h.competitors,
		comparisonRepo: h.comparisons,
		now:            func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
	return h
}

// ---- tests ----

func TestCompareComputesGaps(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)

	// (0.05 - 0.03) * 100 = 2 percentage points
	assert.InDelta(t, 2.0, got.EngagementGap, 1e-9)
	assert.Equal(t, 42000, got.FollowerGap)
	assert.InDelta(t, 2.0, got.PostingFrequencyGap, 1e-9)
	require.NotNil(t, got.ReportID)

	// symmetric difference carries usage flags per side
	byTag := map[string]domain.HashtagDiff{}
	for _, d := range got.HashtagDifferences {
		byTag[d.Hashtag] = d
	}
	assert.Len(t, byTag, 4)
	assert.True(t, byTag["fitness"].UserUses)
	assert.True(t, byTag["fitness"].CompetitorUses)
	assert.True(t, byTag["homeworkout"].UserUses)
	assert.False(t, byTag["homeworkout"].CompetitorUses)
	assert.True(t, byTag["gymlife"].CompetitorUses)
	assert.False(t, byTag["gymlife"].UserUses)

	assert.NotNil(t, h.comparisons.upserted)
}

func TestCompareRuleLadderHighAction(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)

	var high, medium, low int
	for _, a := range got.TacticalActions {
		switch a.Priority {
		case "high":
			high++
		case "medium":
			medium++
		case "low":
			low++
		}
	}
	// 2pp engagement gap -> exactly one high action; posting gap 2 and
	// unused competitor tags -> two mediums; no observe fallback needed
	assert.Equal(t, 1, high)
	assert.Equal(t, 2, medium)
	assert.Zero(t, low)
}

func TestCompareObserveFallbackGuaranteesAction(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)

	// competitor identical to user, no unique tags
	h.competitors.competitor.AvgEngagementRate = 0.03
	h.competitors.competitor.PostsPerWeek = 3
	h.competitors.competitor.TopHashtags = []string{"fitness"}

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)

	require.Len(t, got.TacticalActions, 1)
	assert.Equal(t, "low", got.TacticalActions[0].Priority)
	assert.Contains(t, got.TacticalActions[0].Action, "Monitor @rival")
}

func TestCompareUsesNLPTacticsWhenAvailable(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)
	h.nlp.tacticsErr = nil
	h.nlp.tactics = nlp.TacticalResult{
		TacticalActions: []domain.TacticalAction{
			{Action: "Copy their series format", Priority: "high", Rationale: "proven format"},
		},
	}

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)
	require.Len(t, got.TacticalActions, 1)
	assert.Equal(t, "Copy their series format", got.TacticalActions[0].Action)
}

func TestCompareWrongOwnerIsNotFound(t *testing.T) {
	h := newHarness(uuid.New())

	_, err := h.svc.Compare(context.Background(), uuid.New(), h.competitors.competitor.ID)
	require.Error(t, err)
}

func TestComparePersistenceFailureReturnsResult(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)
	h.comparisons.upsertErr = errors.New("connection refused")

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 2.0, got.EngagementGap, 1e-9)
	assert.Equal(t, uuid.Nil, got.ID) // unsaved
}

func TestCompareNoReportBaselineIsZero(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)
	h.reports.latest = nil

	got, err := h.svc.Compare(context.Background(), userID, h.competitors.competitor.ID)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, got.EngagementGap, 1e-9)
	assert.Equal(t, 50000, got.FollowerGap)
	assert.Nil(t, got.ReportID)
}

func TestRefreshStaleSnapshots(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)

	h.competitors.stale = []*domain.Competitor{
		{ID: uuid.New(), Platform: domain.PlatformInstagram, Username: "rival"},
		{ID: uuid.New(), Platform: domain.PlatformInstagram, Username: "ghost"},
	}
	h.nlp.profiles = map[string]nlp.ScrapedProfile{
		"rival": {Username: "rival", Followers: 60000, PostsPerWeek: 6, Engagement: 0.055},
	}

	require.NoError(t, h.svc.RefreshStaleSnapshots(context.Background()))

	// both scraped, both persisted (ghost with zero profile)
	require.Len(t, h.competitors.snapshots, 2)
	assert.Equal(t, 60000, h.competitors.snapshots[0].Followers)
}

func TestRefreshStaleSkipsFailedScrapes(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID)
	h.competitors.stale = []*domain.Competitor{
		{ID: uuid.New(), Platform: domain.PlatformInstagram, Username: "rival"},
	}
	h.nlp.scrapeErr = errors.New("blocked")

	require.NoError(t, h.svc.RefreshStaleSnapshots(context.Background()))
	assert.Empty(t, h.competitors.snapshots)
}
