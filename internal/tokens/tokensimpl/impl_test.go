package tokensimpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountRepo struct {
	mu sync.Mutex

	updateErr error
	updates   []tokenUpdate
}

type tokenUpdate struct {
	id           uuid.UUID
	accessToken  string
	refreshToken string
	expiresAt    *time.Time
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, tokenUpdate{id: id, accessToken: accessToken, refreshToken: refreshToken, expiresAt: expiresAt})
	return nil
}

func (f *fakeAccountRepo) UpdateSnapshot(ctx context.Context, id uuid.UUID, snap domain.ProfileSnapshot) error {
	return nil
}

func (f *fakeAccountRepo) TouchLastSynced(ctx context.Context, id uuid.UUID) error {
	return nil
}

func newTestManager(repo *fakeAccountRepo) *ManagerImpl {
	cfg := &config.Config{}
	cfg.TikTok.ClientKey = "tt-key"
	cfg.TikTok.ClientSecret = "tt-secret"
	cfg.Google.ClientID = "g-id"
	cfg.Google.ClientSecret = "g-secret"
	cfg.Meta.AppID = "fb-id"
	cfg.Meta.AppSecret = "fb-secret"

	return &ManagerImpl{
		cfg:         cfg,
		logger:      logger.NewNop(),
		accountRepo: repo,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func expiredAt(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestEnsureFreshSkipsValidToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.tikTokTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformTikTok,
		AccessToken:    "still-good",
		RefreshToken:   "rt",
		TokenExpiresAt: expiredAt(time.Hour),
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "still-good", got.AccessToken)
	assert.Zero(t, calls)
	assert.Empty(t, repo.updates)
}

func TestEnsureFreshTreatsNilExpiryAsLongLived(t *testing.T) {
	repo := &fakeAccountRepo{}
	m := newTestManager(repo)

	acc := domain.ConnectedAccount{
		ID:          uuid.New(),
		Platform:    domain.PlatformInstagram,
		AccessToken: "long-lived",
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "long-lived", got.AccessToken)
	assert.Empty(t, repo.updates)
}

func TestEnsureFreshRefreshesInsideBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"access_token":"new-at","refresh_token":"new-rt","expires_in":86400}}`))
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.tikTokTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformTikTok,
		AccessToken:    "old-at",
		RefreshToken:   "old-rt",
		TokenExpiresAt: expiredAt(2 * time.Minute), // inside the 5 minute buffer
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "new-at", got.AccessToken)
	assert.Equal(t, "new-rt", got.RefreshToken)
}

func TestEnsureFreshTikTokRotatesBothTokens(t *testing.T) {
	var gotGrant, gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.Form.Get("grant_type")
		gotRefresh = r.Form.Get("refresh_token")
		w.Write([]byte(`{"data":{"access_token":"tt-at2","refresh_token":"tt-rt2","expires_in":86400}}`))
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.tikTokTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformTikTok,
		AccessToken:    "tt-at1",
		RefreshToken:   "tt-rt1",
		TokenExpiresAt: expiredAt(-time.Minute),
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "tt-rt1", gotRefresh)
	assert.Equal(t, "tt-at2", got.AccessToken)
	assert.Equal(t, "tt-rt2", got.RefreshToken)
	require.NotNil(t, got.TokenExpiresAt)
	assert.True(t, got.TokenExpiresAt.After(time.Now().Add(23*time.Hour)))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, acc.ID, repo.updates[0].id)
	assert.Equal(t, "tt-at2", repo.updates[0].accessToken)
	assert.Equal(t, "tt-rt2", repo.updates[0].refreshToken)
}

func TestEnsureFreshGoogleKeepsRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"yt-at2","expires_in":3600}`))
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.googleTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformYouTube,
		AccessToken:    "yt-at1",
		RefreshToken:   "yt-rt",
		TokenExpiresAt: expiredAt(-time.Minute),
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "yt-at2", got.AccessToken)
	assert.Equal(t, "yt-rt", got.RefreshToken)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, "yt-rt", repo.updates[0].refreshToken)
}

func TestEnsureFreshInstagramExchangesCurrentToken(t *testing.T) {
	var gotGrant, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGrant = r.URL.Query().Get("grant_type")
		gotToken = r.URL.Query().Get("access_token")
		w.Write([]byte(`{"access_token":"ig-at2","expires_in":5184000}`))
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.instagramTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformInstagram,
		AccessToken:    "ig-at1",
		TokenExpiresAt: expiredAt(time.Minute),
	}

	got, err := m.EnsureFresh(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "ig_refresh_token", gotGrant)
	assert.Equal(t, "ig-at1", gotToken)
	assert.Equal(t, "ig-at2", got.AccessToken)
	assert.Empty(t, got.RefreshToken)
}

func TestEnsureFreshMissingRefreshTokenRequiresReconnect(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.tikTokTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformTikTok,
		Username:       "creator",
		AccessToken:    "expired",
		TokenExpiresAt: expiredAt(-time.Hour),
	}

	_, err := m.EnsureFresh(context.Background(), acc)
	require.Error(t, err)
	assert.True(t, errors.IsReconnectRequired(err))
	assert.Zero(t, calls)
	assert.Empty(t, repo.updates)
}

func TestEnsureFreshPersistFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at2","expires_in":3600}`))
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{updateErr: context.DeadlineExceeded}
	m := newTestManager(repo)
	m.googleTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformYouTube,
		AccessToken:    "at1",
		RefreshToken:   "rt",
		TokenExpiresAt: expiredAt(-time.Minute),
	}

	_, err := m.EnsureFresh(context.Background(), acc)
	require.Error(t, err)
}

func TestEnsureFreshUpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	repo := &fakeAccountRepo{}
	m := newTestManager(repo)
	m.facebookTokenURL = srv.URL

	acc := domain.ConnectedAccount{
		ID:             uuid.New(),
		Platform:       domain.PlatformFacebook,
		AccessToken:    "at1",
		TokenExpiresAt: expiredAt(-time.Minute),
	}

	_, err := m.EnsureFresh(context.Background(), acc)
	require.Error(t, err)
	assert.Empty(t, repo.updates)
}
