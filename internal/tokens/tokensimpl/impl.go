package tokensimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/repositories/account"
	"github.com/growthlens/growthlens/internal/tokens"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

// Refresh when the token expires within this window.
const refreshBuffer = 5 * time.Minute

const (
	defaultTikTokTokenURL    = "https://open.tiktokapis.com/v2/oauth/token/"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultInstagramTokenURL = "https://graph.instagram.com/refresh_access_token"
	defaultFacebookTokenURL  = "https://graph.facebook.com/v21.0/oauth/access_token"
)

type Opts struct {
	fx.In

	Config      *config.Config
	Logger      logger.Logger
	AccountRepo account.Repository
}

type ManagerImpl struct {
	cfg         *config.Config
	logger      logger.Logger
	accountRepo account.Repository
	httpClient  *http.Client

	tikTokTokenURL    string
	googleTokenURL    string
	instagramTokenURL string
	facebookTokenURL  string
}

func New(opts Opts) *ManagerImpl {
	return &ManagerImpl{
		cfg:               opts.Config,
		logger:            opts.Logger.WithComponent("TokenManager"),
		accountRepo:       opts.AccountRepo,
		httpClient:        &http.Client{Timeout: 15 * time.Second},
		tikTokTokenURL:    defaultTikTokTokenURL,
		googleTokenURL:    defaultGoogleTokenURL,
		instagramTokenURL: defaultInstagramTokenURL,
		facebookTokenURL:  defaultFacebookTokenURL,
	}
}

var _ tokens.Manager = (*ManagerImpl)(nil)

func expiringSoon(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		// no expiry = long-lived token
		return false
	}
	return !now.Before(expiresAt.Add(-refreshBuffer))
}

func (m *ManagerImpl) EnsureFresh(ctx context.Context, acc domain.ConnectedAccount) (domain.ConnectedAccount, error) {
	if !expiringSoon(acc.TokenExpiresAt, time.Now()) {
		return acc, nil
	}

	// TikTok and Google refresh via a discrete refresh token; Instagram and
	// Facebook exchange the current access token instead. Fail fast before
	// any network call when the required refresh token is missing.
	needsRefreshToken := acc.Platform == domain.PlatformTikTok || acc.Platform == domain.PlatformYouTube
	if needsRefreshToken && acc.RefreshToken == "" {
		return acc, errors.WrapWithCode(
			errors.ErrReconnectRequired,
			"TOKEN_EXPIRED",
			fmt.Sprintf("access token for %s account @%s has expired, please reconnect the account", acc.Platform, acc.Username),
		)
	}

	m.logger.Info("Refreshing access token", "platform", acc.Platform, "account_id", acc.ID)

	var (
		newAccess  string
		newRefresh = acc.RefreshToken
		expiresIn  int
		err        error
	)

	switch acc.Platform {
	case domain.PlatformTikTok:
		// TikTok rotates both tokens on refresh.
		newAccess, newRefresh, expiresIn, err = m.refreshTikTok(ctx, acc.RefreshToken)
	case domain.PlatformYouTube:
		// Google rotates the access token only; the refresh token is
		// long-lived and reused.
		newAccess, expiresIn, err = m.refreshGoogle(ctx, acc.RefreshToken)
	case domain.PlatformInstagram:
		newAccess, expiresIn, err = m.refreshInstagram(ctx, acc.AccessToken)
	case domain.PlatformFacebook:
		newAccess, expiresIn, err = m.refreshFacebook(ctx, acc.AccessToken)
	default:
		return acc, fmt.Errorf("token refresh not implemented for platform: %s", acc.Platform)
	}
	if err != nil {
		return acc, errors.Wrap(err, fmt.Sprintf("%s token refresh failed", acc.Platform))
	}

	newExpiry := time.Now().Add(time.Duration(expiresIn) * time.Second).UTC()

	// Persist before returning control so no caller ever sees stale material.
	if err := m.accountRepo.UpdateTokens(ctx, acc.ID, newAccess, newRefresh, &newExpiry); err != nil {
		return acc, errors.Wrap(err, "failed to persist refreshed token")
	}

	acc.AccessToken = newAccess
	acc.RefreshToken = newRefresh
	acc.TokenExpiresAt = &newExpiry
	return acc, nil
}

type tikTokTokenResponse struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	} `json:"data"`
}

func (m *ManagerImpl) refreshTikTok(ctx context.Context, refreshToken string) (string, string, int, error) {
	form := url.Values{
		"client_key":    {m.cfg.TikTok.ClientKey},
		"client_secret": {m.cfg.TikTok.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	var resp tikTokTokenResponse
	if err := m.postForm(ctx, m.tikTokTokenURL, form, &resp); err != nil {
		return "", "", 0, err
	}
	return resp.Data.AccessToken, resp.Data.RefreshToken, resp.Data.ExpiresIn, nil
}

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (m *ManagerImpl) refreshGoogle(ctx context.Context, refreshToken string) (string, int, error) {
	form := url.Values{
		"client_id":     {m.cfg.Google.ClientID},
		"client_secret": {m.cfg.Google.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	var resp oauthTokenResponse
	if err := m.postForm(ctx, m.googleTokenURL, form, &resp); err != nil {
		return "", 0, err
	}
	return resp.AccessToken, resp.ExpiresIn, nil
}

// Instagram long-lived tokens refresh in place, no refresh token involved.
func (m *ManagerImpl) refreshInstagram(ctx context.Context, accessToken string) (string, int, error) {
	u := m.instagramTokenURL + "?grant_type=ig_refresh_token&access_token=" + url.QueryEscape(accessToken)

	var resp oauthTokenResponse
	if err := m.getJSON(ctx, u, &resp); err != nil {
		return "", 0, err
	}
	return resp.AccessToken, resp.ExpiresIn, nil
}

// Facebook exchanges the current token for a 60-day long-lived one.
func (m *ManagerImpl) refreshFacebook(ctx context.Context, accessToken string) (string, int, error) {
	u := m.facebookTokenURL +
		"?grant_type=fb_exchange_token&client_id=" + url.QueryEscape(m.cfg.Meta.AppID) +
		"&client_secret=" + url.QueryEscape(m.cfg.Meta.AppSecret) +
		"&fb_exchange_token=" + url.QueryEscape(accessToken)

	var resp oauthTokenResponse
	if err := m.getJSON(ctx, u, &resp); err != nil {
		return "", 0, err
	}
	return resp.AccessToken, resp.ExpiresIn, nil
}

func (m *ManagerImpl) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return m.do(req, out)
}

func (m *ManagerImpl) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return m.do(req, out)
}

func (m *ManagerImpl) do(req *http.Request, out any) error {
	res, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("token endpoint returned %d: %s", res.StatusCode, string(raw))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
