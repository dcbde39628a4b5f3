package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/platform"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/growthlens/growthlens/pkg/retry"
	"go.uber.org/fx"
)

const defaultBaseURL = "https://open.tiktokapis.com/v2"

// Research API pages are capped at 20 videos.
const pageSize = 20

var videoFields = []string{
	"id", "title", "video_description", "create_time", "cover_image_url",
	"share_url", "duration", "like_count", "comment_count", "share_count",
	"view_count", "hashtag_names",
}

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
		logger:     opts.Logger.WithComponent("TikTokAdapter"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

var _ platform.Adapter = (*Adapter)(nil)

type video struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	VideoDescription string   `json:"video_description"`
	CreateTime       int64    `json:"create_time"`
	CoverImageURL    string   `json:"cover_image_url"`
	ShareURL         string   `json:"share_url"`
	Duration         int      `json:"duration"`
	LikeCount        int      `json:"like_count"`
	CommentCount     int      `json:"comment_count"`
	ShareCount       int      `json:"share_count"`
	ViewCount        int      `json:"view_count"`
	HashtagNames     []string `json:"hashtag_names"`
}

type videoListResponse struct {
	Data struct {
		Videos  []video `json:"videos"`
		Cursor  int64   `json:"cursor"`
		HasMore bool    `json:"has_more"`
	} `json:"data"`
}

type userInfoResponse struct {
	Data struct {
		User struct {
			OpenID         string `json:"open_id"`
			Username       string `json:"username"`
			DisplayName    string `json:"display_name"`
			AvatarURL      string `json:"avatar_url"`
			FollowerCount  int    `json:"follower_count"`
			FollowingCount int    `json:"following_count"`
		} `json:"user"`
	} `json:"data"`
}

func (a *Adapter) FetchPosts(ctx context.Context, account domain.ConnectedAccount, maxPosts int) ([]domain.Post, error) {
	maxPosts = platform.ClampMaxPosts(maxPosts)

	var posts []domain.Post
	var cursor int64
	hasMore := true

	for len(posts) < maxPosts && hasMore {
		body := map[string]any{
			"fields":    videoFields,
			"max_count": pageSize,
			"cursor":    cursor,
		}

		var page videoListResponse
		if err := a.doJSON(ctx, http.MethodPost, "/video/list/", account.AccessToken, body, &page); err != nil {
			return nil, err
		}

		// An empty page cannot advance the cursor, whatever has_more claims.
		if len(page.Data.Videos) == 0 {
			break
		}

		for _, v := range page.Data.Videos {
			posts = append(posts, a.toPost(account, v))
		}

		cursor = page.Data.Cursor
		hasMore = page.Data.HasMore
	}

	if len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}
	return posts, nil
}

func (a *Adapter) GetProfile(ctx context.Context, token string) (domain.ProfileSnapshot, error) {
	path := "/user/info/?fields=open_id,union_id,avatar_url,display_name,username,follower_count,following_count"

	var resp userInfoResponse
	if err := a.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return domain.ProfileSnapshot{}, err
	}

	u := resp.Data.User
	username := u.Username
	if username == "" {
		username = u.DisplayName
	}
	return domain.ProfileSnapshot{
		PlatformUserID: u.OpenID,
		Username:       username,
		DisplayName:    u.DisplayName,
		AvatarURL:      u.AvatarURL,
		Followers:      u.FollowerCount,
		Following:      u.FollowingCount,
	}, nil
}

func (a *Adapter) toPost(account domain.ConnectedAccount, v video) domain.Post {
	caption := v.Title + "\n" + v.VideoDescription
	views := v.ViewCount
	interactions := v.LikeCount + v.CommentCount + v.ShareCount

	rate := 0.0
	if views > 0 {
		rate = float64(interactions) / float64(views)
	}

	duration := v.Duration
	return domain.Post{
		AccountID:       account.ID,
		PlatformPostID:  v.ID,
		ContentType:     domain.ContentTypeVideo,
		Caption:         caption,
		Hashtags:        platform.ExtractHashtags(caption, v.HashtagNames),
		Mentions:        platform.ExtractMentions(caption),
		MediaURL:        v.ShareURL,
		ThumbnailURL:    v.CoverImageURL,
		DurationSeconds: &duration,
		Likes:           v.LikeCount,
		Comments:        v.CommentCount,
		Shares:          v.ShareCount,
		Views:           views,
		Reach:           views,
		EngagementRate:  rate,
		PostedAt:        time.Unix(v.CreateTime, 0).UTC(),
	}
}

func (a *Adapter) doJSON(ctx context.Context, method, path, token string, body any, out any) error {
	operation := func() error {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return retry.Permanent(err)
			}
			reader = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		res, err := a.httpClient.Do(req)
		if err != nil {
			return err // transport errors are retryable
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			return fmt.Errorf("tiktok upstream %d", res.StatusCode)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			raw, _ := io.ReadAll(res.Body)
			return retry.Permanent(&platform.APIError{
				Platform:   domain.PlatformTikTok,
				StatusCode: res.StatusCode,
				Message:    string(raw),
			})
		}
		return json.NewDecoder(res.Body).Decode(out)
	}

	if err := retry.Do(ctx, a.logger, "TikTok "+path, operation, retry.DefaultConfig()); err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &platform.APIError{Platform: domain.PlatformTikTok, Message: err.Error()}
	}
	return nil
}
