package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/platform"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/growthlens/growthlens/pkg/retry"
	"go.uber.org/fx"
)

const defaultBaseURL = "https://graph.instagram.com/v21.0"

const pageSize = 25

// Reach estimate multiplier used when the insights call fails for a post.
const reachEstimateFactor = 10

var mediaFields = "id,media_type,media_product_type,caption,timestamp,permalink,thumbnail_url,media_url,like_count,comments_count"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type Adapter struct {
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

func New(opts Opts) *Adapter {
	return &Adapter{
		logger:     opts.Logger.WithComponent("InstagramAdapter"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

var _ platform.Adapter = (*Adapter)(nil)

type media struct {
	ID               string `json:"id"`
	MediaType        string `json:"media_type"`         // IMAGE | VIDEO | CAROUSEL_ALBUM
	MediaProductType string `json:"media_product_type"` // REELS | FEED | STORY
	Caption          string `json:"caption"`
	Timestamp        time.Time `json:"timestamp"`
	Permalink        string `json:"permalink"`
	ThumbnailURL     string `json:"thumbnail_url"`
	MediaURL         string `json:"media_url"`
	LikeCount        int    `json:"like_count"`
	CommentsCount    int    `json:"comments_count"`
}

type mediaListResponse struct {
	Data   []media `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

type profileResponse struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int    `json:"followers_count"`
	FollowsCount      int    `json:"follows_count"`
}

func (a *Adapter) FetchPosts(ctx context.Context, account domain.ConnectedAccount, maxPosts int) ([]domain.Post, error) {
	maxPosts = platform.ClampMaxPosts(maxPosts)

	var posts []domain.Post
	cursor := ""

	for len(posts) < maxPosts {
		path := fmt.Sprintf("/me/media?fields=%s&limit=%d", mediaFields, pageSize)
		if cursor != "" {
			path += "&after=" + url.QueryEscape(cursor)
		}

		var page mediaListResponse
		if err := a.doJSON(ctx, path, account.AccessToken, &page); err != nil {
			return nil, err
		}

		for _, m := range page.Data {
			posts = append(posts, a.toPost(ctx, account, m))
		}

		cursor = page.Paging.Cursors.After
		if cursor == "" || page.Paging.Next == "" {
			break
		}
	}

	if len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}
	return posts, nil
}

func (a *Adapter) GetProfile(ctx context.Context, token string) (domain.ProfileSnapshot, error) {
	var p profileResponse
	if err := a.doJSON(ctx, "/me?fields=id,username,name,profile_picture_url,followers_count,follows_count", token, &p); err != nil {
		return domain.ProfileSnapshot{}, err
	}

	display := p.Name
	if display == "" {
		display = p.Username
	}
	return domain.ProfileSnapshot{
		PlatformUserID: p.ID,
		Username:       p.Username,
		DisplayName:    display,
		AvatarURL:      p.ProfilePictureURL,
		Followers:      p.FollowersCount,
		Following:      p.FollowsCount,
	}, nil
}

func (a *Adapter) toPost(ctx context.Context, account domain.ConnectedAccount, m media) domain.Post {
	// Reach, saves and shares need a secondary insights call per post.
	// One bad post must not abort the whole batch: on failure fall back to a
	// deterministic reach estimate.
	reach, saves, shares, err := a.fetchInsights(ctx, m.ID, account.AccessToken)
	if err != nil {
		a.logger.Warn("Insights call failed, estimating reach", "media_id", m.ID, "error", err)
		reach = m.LikeCount * reachEstimateFactor
		saves, shares = 0, 0
	}

	interactions := m.LikeCount + m.CommentsCount + shares
	rate := 0.0
	if reach > 0 {
		rate = float64(interactions) / float64(reach)
	}

	return domain.Post{
		AccountID:      account.ID,
		PlatformPostID: m.ID,
		ContentType:    mapMediaType(m),
		Caption:        m.Caption,
		Hashtags:       platform.ExtractHashtags(m.Caption, nil),
		Mentions:       platform.ExtractMentions(m.Caption),
		MediaURL:       m.MediaURL,
		ThumbnailURL:   m.ThumbnailURL,
		Likes:          m.LikeCount,
		Comments:       m.CommentsCount,
		Shares:         shares,
		Saves:          saves,
		Views:          reach,
		Reach:          reach,
		EngagementRate: rate,
		PostedAt:       m.Timestamp.UTC(),
	}
}

func (a *Adapter) fetchInsights(ctx context.Context, mediaID, token string) (reach, saves, shares int, err error) {
	var resp insightsResponse
	if err := a.doJSON(ctx, "/"+mediaID+"/insights?metric=reach,saved,shares", token, &resp); err != nil {
		return 0, 0, 0, err
	}
	for _, metric := range resp.Data {
		if len(metric.Values) == 0 {
			continue
		}
		switch metric.Name {
		case "reach":
			reach = metric.Values[0].Value
		case "saved":
			saves = metric.Values[0].Value
		case "shares":
			shares = metric.Values[0].Value
		}
	}
	return reach, saves, shares, nil
}

func mapMediaType(m media) domain.ContentType {
	switch {
	case m.MediaProductType == "REELS":
		return domain.ContentTypeReel
	case m.MediaProductType == "STORY":
		return domain.ContentTypeStory
	case m.MediaType == "VIDEO":
		return domain.ContentTypeVideo
	default:
		return domain.ContentTypePost
	}
}

func (a *Adapter) doJSON(ctx context.Context, path, token string, out any) error {
	operation := func() error {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+sep+"access_token="+url.QueryEscape(token), nil)
		if err != nil {
			return retry.Permanent(err)
		}

		res, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			return fmt.Errorf("instagram upstream %d", res.StatusCode)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			raw, _ := io.ReadAll(res.Body)
			return retry.Permanent(&platform.APIError{
				Platform:   domain.PlatformInstagram,
				StatusCode: res.StatusCode,
				Message:    string(raw),
			})
		}
		return json.NewDecoder(res.Body).Decode(out)
	}

	if err := retry.Do(ctx, a.logger, "Instagram "+path, operation, retry.DefaultConfig()); err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &platform.APIError{Platform: domain.PlatformInstagram, Message: err.Error()}
	}
	return nil
}
