package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/platform"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/growthlens/growthlens/pkg/retry"
	"go.uber.org/fx"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Videos shorter than this are classified as shorts.
const shortMaxSeconds = 60

const detailBatchSize = 50

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
		logger:     opts.Logger.WithComponent("YouTubeAdapter"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

var _ platform.Adapter = (*Adapter)(nil)

type channelResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			CustomURL  string `json:"customUrl"`
			Thumbnails struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			Tags        []string  `json:"tags"`
			PublishedAt time.Time `json:"publishedAt"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (a *Adapter) FetchPosts(ctx context.Context, account domain.ConnectedAccount, maxPosts int) ([]domain.Post, error) {
	maxPosts = platform.ClampMaxPosts(maxPosts)
	token := account.AccessToken

	var channels channelResponse
	if err := a.doJSON(ctx, "/channels?part=id,contentDetails&mine=true", token, &channels); err != nil {
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, &platform.APIError{Platform: domain.PlatformYouTube, Message: "could not retrieve YouTube channel"}
	}
	uploads := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return nil, &platform.APIError{Platform: domain.PlatformYouTube, Message: "could not find uploads playlist"}
	}

	var videoIDs []string
	pageToken := ""
	for len(videoIDs) < maxPosts {
		path := fmt.Sprintf("/playlistItems?part=contentDetails&playlistId=%s&maxResults=%d", url.QueryEscape(uploads), detailBatchSize)
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page playlistItemsResponse
		if err := a.doJSON(ctx, path, token, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			videoIDs = append(videoIDs, item.ContentDetails.VideoID)
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if len(videoIDs) > maxPosts {
		videoIDs = videoIDs[:maxPosts]
	}

	var posts []domain.Post
	for i := 0; i < len(videoIDs); i += detailBatchSize {
		end := i + detailBatchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		var details videosResponse
		path := "/videos?part=snippet,statistics,contentDetails&id=" + strings.Join(videoIDs[i:end], ",")
		if err := a.doJSON(ctx, path, token, &details); err != nil {
			return nil, err
		}

		for _, v := range details.Items {
			duration := parseISO8601Duration(v.ContentDetails.Duration)
			views := atoi(v.Statistics.ViewCount)
			likes := atoi(v.Statistics.LikeCount)
			comments := atoi(v.Statistics.CommentCount)

			caption := v.Snippet.Title + "\n" + v.Snippet.Description

			contentType := domain.ContentTypeVideo
			if duration < shortMaxSeconds {
				contentType = domain.ContentTypeShort
			}

			// YouTube exposes neither shares nor saves.
			rate := 0.0
			if views > 0 {
				rate = float64(likes+comments) / float64(views)
			}

			d := duration
			posts = append(posts, domain.Post{
				AccountID:       account.ID,
				PlatformPostID:  v.ID,
				ContentType:     contentType,
				Caption:         caption,
				Hashtags:        platform.ExtractHashtags(v.Snippet.Description, v.Snippet.Tags),
				Mentions:        platform.ExtractMentions(v.Snippet.Description),
				MediaURL:        "https://www.youtube.com/watch?v=" + v.ID,
				ThumbnailURL:    v.Snippet.Thumbnails.High.URL,
				DurationSeconds: &d,
				Likes:           likes,
				Comments:        comments,
				Views:           views,
				Reach:           views,
				EngagementRate:  rate,
				PostedAt:        v.Snippet.PublishedAt.UTC(),
			})
		}
	}

	return posts, nil
}

func (a *Adapter) GetProfile(ctx context.Context, token string) (domain.ProfileSnapshot, error) {
	var channels channelResponse
	if err := a.doJSON(ctx, "/channels?part=snippet,statistics&mine=true", token, &channels); err != nil {
		return domain.ProfileSnapshot{}, err
	}
	if len(channels.Items) == 0 {
		return domain.ProfileSnapshot{}, &platform.APIError{Platform: domain.PlatformYouTube, Message: "could not retrieve YouTube channel"}
	}

	ch := channels.Items[0]
	username := ch.Snippet.CustomURL
	if username == "" {
		username = ch.ID
	}
	return domain.ProfileSnapshot{
		PlatformUserID: ch.ID,
		Username:       username,
		DisplayName:    ch.Snippet.Title,
		AvatarURL:      ch.Snippet.Thumbnails.High.URL,
		Followers:      atoi(ch.Statistics.SubscriberCount),
	}, nil
}

var durationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

func parseISO8601Duration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (a *Adapter) doJSON(ctx context.Context, path, token string, out any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		res, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			return fmt.Errorf("youtube upstream %d", res.StatusCode)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			raw, _ := io.ReadAll(res.Body)
			return retry.Permanent(&platform.APIError{
				Platform:   domain.PlatformYouTube,
				StatusCode: res.StatusCode,
				Message:    string(raw),
			})
		}
		return json.NewDecoder(res.Body).Decode(out)
	}

	if err := retry.Do(ctx, a.logger, "YouTube "+path, operation, retry.DefaultConfig()); err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &platform.APIError{Platform: domain.PlatformYouTube, Message: err.Error()}
	}
	return nil
}
