package nlpimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/nlp"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

// The service transcribes media, so batches are kept small.
const analyzeBatchLimit = 30

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type ClientImpl struct {
	cfg        *config.Config
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

func New(opts Opts) *ClientImpl {
	return &ClientImpl{
		cfg:        opts.Config,
		logger:     opts.Logger.WithComponent("NLPService"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    opts.Config.NLPService.URL,
	}
}

var _ nlp.Client = (*ClientImpl)(nil)

type analyzePostsRequest struct {
	Platform domain.Platform `json:"platform"`
	Posts    []analyzePost   `json:"posts"`
}

type analyzePost struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	MediaURL string `json:"media_url,omitempty"`
}

func (c *ClientImpl) AnalyzePosts(ctx context.Context, platform domain.Platform, posts []domain.Post) (nlp.BatchResult, error) {
	if len(posts) > analyzeBatchLimit {
		posts = posts[:analyzeBatchLimit]
	}

	req := analyzePostsRequest{Platform: platform}
	for _, p := range posts {
		req.Posts = append(req.Posts, analyzePost{
			ID:       p.PlatformPostID,
			Caption:  p.Caption,
			MediaURL: p.MediaURL,
		})
	}

	var out nlp.BatchResult
	if err := c.post(ctx, "/analyze/posts", req, &out); err != nil {
		return nlp.BatchResult{}, err
	}
	return out, nil
}

func (c *ClientImpl) CompetitorTactics(ctx context.Context, in nlp.TacticsInput) (nlp.TacticalResult, error) {
	var out nlp.TacticalResult
	if err := c.post(ctx, "/analyze/competitor", in, &out); err != nil {
		return nlp.TacticalResult{}, err
	}
	return out, nil
}

type scrapeRequest struct {
	Platform domain.Platform `json:"platform"`
	Username string          `json:"username"`
}

func (c *ClientImpl) ScrapeProfile(ctx context.Context, platform domain.Platform, username string) (nlp.ScrapedProfile, error) {
	var out nlp.ScrapedProfile
	if err := c.post(ctx, "/scrape/profile", scrapeRequest{Platform: platform, Username: username}, &out); err != nil {
		return nlp.ScrapedProfile{}, err
	}
	return out, nil
}

func (c *ClientImpl) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Secret", c.cfg.NLPService.Secret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrServiceUnavailable, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		errBody, _ := io.ReadAll(res.Body)
		c.logger.Warn("NLP service error", "path", path, "status", res.StatusCode)
		return errors.Wrap(errors.ErrServiceUnavailable,
			fmt.Sprintf("nlp service returned %d: %s", res.StatusCode, string(errBody)))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
