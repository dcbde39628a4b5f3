package notifyimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	userIDs []uuid.UUID
}

func (f *fakeReportRepo) Create(context.Context, domain.AnalysisReport) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (f *fakeReportRepo) GetByID(context.Context, uuid.UUID) (*domain.AnalysisReport, error) {
	return nil, nil
}
func (f *fakeReportRepo) GetByJobID(context.Context, uuid.UUID) (*domain.AnalysisReport, error) {
	return nil, nil
}
func (f *fakeReportRepo) LatestByUser(context.Context, uuid.UUID) (*domain.AnalysisReport, error) {
	return nil, nil
}
func (f *fakeReportRepo) UserIDsWithReportsSince(context.Context, time.Time) ([]uuid.UUID, error) {
	return f.userIDs, nil
}

func newTestNotifier(webhookURL string, repo *fakeReportRepo) *WebhookNotifier {
	cfg := &config.Config{}
	cfg.Notify.WebhookURL = webhookURL

	return &WebhookNotifier{
		cfg:        cfg,
		logger:     logger.NewNop(),
		reportRepo: repo,
		httpClient: &http.Client{Timeout: time.Second},
		now:        func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) },
	}
}

func TestAnalysisReadyPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, &fakeReportRepo{})
	userID := uuid.New()
	rpt := domain.AnalysisReport{
		ID:            uuid.New(),
		GrowthScore:   74,
		DetectedNiche: "fitness",
		Weaknesses: []domain.Insight{
			{Title: "Inconsistent cadence", Description: "Posting gaps exceed two weeks"},
		},
	}

	require.NoError(t, n.AnalysisReady(context.Background(), userID, rpt))

	assert.Equal(t, "analysis_ready", received["type"])
	assert.Equal(t, userID.String(), received["user_id"])

	payload := received["payload"].(map[string]any)
	assert.Equal(t, float64(74), payload["growth_score"])
	assert.Equal(t, "fitness", payload["niche"])
	assert.Equal(t, "Posting gaps exceed two weeks", payload["top_insight"])
}

func TestAnalysisReadyDefaultInsight(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, &fakeReportRepo{})

	require.NoError(t, n.AnalysisReady(context.Background(), uuid.New(), domain.AnalysisReport{}))

	payload := received["payload"].(map[string]any)
	assert.Equal(t, "Review your full report for actionable next steps.", payload["top_insight"])
}

func TestSendSkipsWithoutWebhookURL(t *testing.T) {
	n := newTestNotifier("", &fakeReportRepo{})

	assert.NoError(t, n.WeeklyDigest(context.Background(), uuid.New(), 3))
}

func TestSendSurfacesWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, &fakeReportRepo{})

	err := n.WeeklyDigest(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRunDigestNotifiesEachUser(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		got = append(got, e["user_id"].(string))
	}))
	defer server.Close()

	users := []uuid.UUID{uuid.New(), uuid.New()}
	n := newTestNotifier(server.URL, &fakeReportRepo{userIDs: users})

	n.runDigest(context.Background())

	assert.Equal(t, []string{users[0].String(), users[1].String()}, got)
}
