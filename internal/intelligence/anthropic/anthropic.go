// Package anthropic implements the intelligence client against the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/intelligence"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/growthlens/growthlens/pkg/retry"
	"go.uber.org/fx"
)

const (
	defaultBaseURL      = "https://api.anthropic.com"
	apiVersion          = "2023-06-01"
	nichePostSample     = 50
	captionTruncate     = 300
	hookCaptionTruncate = 200
	hashtagTagLimit     = 30
	hookTokenBudget     = 512
	requestTimeout      = 90 * time.Second
	tagsPerPostLimit    = 10
)

const analysisSystemPrompt = `You are an elite social media growth strategist and data analyst with deep expertise in:
- TikTok algorithm mechanics, viral content patterns, and the For You Page (FYP) optimization
- Instagram Reels ranking signals, Explore page optimization, and engagement psychology
- YouTube's watch-time algorithm, thumbnail CTR, and retention optimization
- Facebook's content distribution algorithm and engagement mechanics
- Short-form content psychology: pattern interrupts, open loops, hooks, CTAs
- Hashtag strategy, niche positioning, and audience targeting
- Competitor analysis and market gap identification

You provide data-driven, specific, actionable insights. Never give generic advice.
Always reference specific metrics when making recommendations.
Your output must be structured valid JSON that exactly matches the requested schema.`

const generationSystemPrompt = `You are a viral content creator and copywriter who has helped hundreds of creators grow from 0 to 100K+ followers.
You understand the psychology of attention, social proof, curiosity gaps, and emotional triggers.
You create platform-native content that feels organic, not corporate.
Your output must be structured valid JSON.`

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type Client struct {
	cfg        *config.Config
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

func New(opts Opts) *Client {
	return &Client{
		cfg:        opts.Config,
		logger:     opts.Logger.WithComponent("Anthropic"),
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
	}
}

var _ intelligence.Client = (*Client)(nil)

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type postSummary struct {
	Caption        string   `json:"caption"`
	Hashtags       []string `json:"hashtags"`
	EngagementRate float64  `json:"engagement_rate"`
	Type           string   `json:"type"`
}

func (c *Client) DetectNiche(ctx context.Context, posts []domain.Post) (intelligence.NicheResult, error) {
	sample := posts
	if len(sample) > nichePostSample {
		sample = sample[:nichePostSample]
	}

	summaries := make([]postSummary, 0, len(sample))
	for _, p := range sample {
		caption := truncateRunes(p.Caption, captionTruncate)
		tags := p.Hashtags
		if len(tags) > tagsPerPostLimit {
			tags = tags[:tagsPerPostLimit]
		}
		summaries = append(summaries, postSummary{
			Caption:        caption,
			Hashtags:       tags,
			EngagementRate: p.EngagementRate,
			Type:           string(p.ContentType),
		})
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return intelligence.NicheResult{}, err
	}

	prompt := fmt.Sprintf(`Analyze these %d posts and identify the creator's niche and content themes.

Posts data:
%s

Return a JSON object with this exact structure:
{
  "niche": "specific niche name (e.g. 'fitness for beginners', 'personal finance tips', 'travel vlogging')",
  "confidence": 0.0-1.0,
  "keywords": ["keyword1", "keyword2", ...up to 15 keywords],
  "themes": [
    {
      "theme": "theme name",
      "frequency": number_of_posts,
      "avg_engagement_rate": 0.0,
      "is_dominant": true/false
    }
  ]
}`, len(summaries), data)

	var out intelligence.NicheResult
	if err := c.complete(ctx, analysisSystemPrompt, prompt, c.cfg.Anthropic.MaxTokens, &out); err != nil {
		return intelligence.NicheResult{}, err
	}
	return out, nil
}

func (c *Client) AnalyzeHashtags(ctx context.Context, hashtags []string, niche string, platform domain.Platform) ([]domain.HashtagAnalysis, error) {
	type tagFreq struct {
		Tag       string `json:"tag"`
		Frequency int    `json:"frequency"`
	}

	freq := map[string]int{}
	order := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		if freq[tag] == 0 {
			order = append(order, tag)
		}
		freq[tag]++
	}

	// stable sort keeps first-seen order among equal frequencies
	top := make([]tagFreq, 0, len(order))
	for _, tag := range order {
		top = append(top, tagFreq{Tag: tag, Frequency: freq[tag]})
	}
	for i := 1; i < len(top); i++ {
		for j := i; j > 0 && top[j].Frequency > top[j-1].Frequency; j-- {
			top[j], top[j-1] = top[j-1], top[j]
		}
	}
	if len(top) > hashtagTagLimit {
		top = top[:hashtagTagLimit]
	}

	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze these hashtags for a %s creator on %s.

Hashtag usage frequency:
%s

Evaluate each hashtag and return a JSON array:
[
  {
    "tag": "#hashtag",
    "reach_score": 0-100,
    "competition": "low" | "medium" | "high",
    "relevance": 0.0-1.0,
    "recommendation": "keep" | "replace" | "add",
    "suggested_alternative": "alternative hashtag if replacing, or null"
  }
]

Consider:
- Are they too broad (millions of posts = hard to get discovered)?
- Are they too niche (too small to drive meaningful reach)?
- Are they relevant to the detected niche?
- Do they follow the 30/30/30/10 rule (large/medium/small/brand)?`, niche, platform, data)

	var out []domain.HashtagAnalysis
	if err := c.complete(ctx, analysisSystemPrompt, prompt, c.cfg.Anthropic.MaxTokens, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GenerateInsights(ctx context.Context, in intelligence.InsightsInput) (intelligence.InsightsResult, error) {
	themes := make([]string, 0, len(in.ContentThemes))
	for _, t := range in.ContentThemes {
		themes = append(themes, t.Theme)
	}
	formats := make([]string, 0, len(in.TopFormats))
	for _, f := range in.TopFormats {
		formats = append(formats, string(f))
	}
	hours := make([]string, 0, len(in.BestHours))
	for _, h := range in.BestHours {
		hours = append(hours, fmt.Sprintf("%d", h))
	}

	prompt := fmt.Sprintf(`Generate a comprehensive growth strategy analysis for this %s creator in the %s niche.

Metrics:
- Avg engagement rate: %.2f%%
- Hook strength score: %.0f/100
- CTA usage rate: %.0f%% of posts
- Posting consistency: %.0f/100
- Hashtag effectiveness: %d/100
- Branding consistency: %d/100
- Posts per week: %g
- Best posting days: %s
- Best hours (UTC): %s
- Top performing formats: %s
- Content themes: %s

Return this exact JSON structure:
{
  "strengths": [
    {
      "title": "specific strength title",
      "description": "detailed explanation with specific metrics",
      "impact": "high" | "medium" | "low",
      "metric": "specific metric backing this up"
    }
  ],
  "weaknesses": [
    {
      "title": "specific weakness",
      "description": "why this hurts growth with specific context",
      "impact": "high" | "medium" | "low",
      "metric": "specific metric",
      "recommendation": "specific fix with expected outcome"
    }
  ],
  "opportunities": [
    {
      "title": "growth opportunity",
      "description": "how to capitalize on this",
      "impact": "high" | "medium" | "low"
    }
  ],
  "roadmap": [
    {
      "priority": 1,
      "action": "specific action to take",
      "expected_impact": "quantified expected improvement",
      "timeframe": "e.g. '2 weeks'",
      "category": "content" | "hashtags" | "posting" | "engagement" | "branding"
    }
  ],
  "executive_summary": "2-3 sentence executive summary of the creator's current state and biggest opportunity"
}

Provide minimum 3 items in strengths and weaknesses. Roadmap should have 8-10 prioritized actions.`,
		in.Platform, in.Niche,
		in.AvgEngagementRate*100,
		in.AvgHookScore*100,
		in.CTAUsageRate*100,
		in.PostingConsistency*100,
		in.HashtagScore,
		in.BrandingScore,
		in.AvgPostsPerWeek,
		strings.Join(in.BestDays, ", "),
		strings.Join(hours, ", "),
		strings.Join(formats, ", "),
		strings.Join(themes, ", "),
	)

	var out intelligence.InsightsResult
	if err := c.complete(ctx, analysisSystemPrompt, prompt, c.cfg.Anthropic.MaxTokens, &out); err != nil {
		return intelligence.InsightsResult{}, err
	}
	return out, nil
}

func (c *Client) ScoreHook(ctx context.Context, caption string) (intelligence.HookResult, error) {
	opening := truncateRunes(caption, hookCaptionTruncate)

	prompt := fmt.Sprintf(`Analyze this content hook (first 3-5 seconds / opening words):

"%s"

Rate and analyze the hook. Return JSON:
{
  "score": 0.0-1.0,
  "hook_text": "the actual hook text extracted",
  "hook_type": "question" | "statement" | "stat" | "story" | "controversial" | "none",
  "feedback": "specific feedback on why this hook works or doesn't, with improvement suggestion"
}

Hook scoring rubric:
- 0.9-1.0: Immediately creates curiosity or emotional investment, pattern interrupt
- 0.7-0.9: Good hook with clear value proposition
- 0.5-0.7: Average hook, somewhat engaging
- 0.3-0.5: Weak hook, too slow or generic
- 0.0-0.3: No hook, starts with generic intro`, opening)

	var out intelligence.HookResult
	if err := c.complete(ctx, analysisSystemPrompt, prompt, hookTokenBudget, &out); err != nil {
		return intelligence.HookResult{}, err
	}
	return out, nil
}

// truncateRunes shortens s to at most n runes. Slicing bytes instead would
// split multi-byte characters and leak U+FFFD into prompts.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var platformSpecifics = map[domain.Platform]string{
	domain.PlatformTikTok:    "TikTok FYP algorithm favors: strong hooks in first 1-2s, high completion rate, native sounds, trending audio, text overlays, captions. Videos 15-60s perform best.",
	domain.PlatformInstagram: "Instagram Reels: original audio preferred, cover image matters for saves, use carousel for educational content, hashtags in first comment, location tags boost reach.",
	domain.PlatformYouTube:   "YouTube Shorts: loop-friendly content performs well. For long-form: strong thumbnail + title CTR, first 30s must deliver on the title promise, chapters for retention.",
	domain.PlatformFacebook:  "Facebook: emotional content shares more, text posts still get reach, video must caption-readable without sound, peak hours 1-4pm and 7-9pm.",
}

func generationSchema(contentType string) string {
	switch contentType {
	case "hook":
		return `Return JSON: { "hooks": [{ "text": "hook text", "type": "question|statement|stat|story|controversial", "psychology": "why this works psychologically", "expected_retention": "high|medium|low" }] }`
	case "caption":
		return `Return JSON: { "captions": [{ "caption": "full caption text", "hashtags": ["tag1","tag2",...30 tags], "cta": "call to action", "character_count": 0 }] }`
	case "script":
		return `Return JSON: { "scripts": [{ "hook": "opening hook (0-3s)", "hook_duration": "3s", "body_points": [{"timestamp": "3-15s", "content": "point content"}], "cta": "closing CTA", "total_duration": "45s" }] }`
	case "idea":
		return `Return JSON: { "video_ideas": [{ "title": "video title", "angle": "unique angle/POV", "why_it_works": "psychology behind this idea", "format": "video|reel|short|post" }] }`
	case "hashtags":
		return `Return JSON: { "hashtag_sets": [{ "name": "set name", "tags": ["#tag1",...30 tags], "strategy": "explanation of the hashtag strategy mix" }] }`
	case "full_plan":
		return `Return JSON with ALL keys: { "hooks": [...5 hooks], "captions": [...3 captions], "hashtag_sets": [...2 sets], "video_ideas": [...5 ideas] }`
	default:
		return `Return appropriate JSON for the content type.`
	}
}

func (c *Client) GenerateContent(ctx context.Context, req intelligence.GenerateRequest, accountCtx *intelligence.GenerateContext) (json.RawMessage, error) {
	tone := req.Tone
	if tone == "" {
		tone = "entertaining and educational"
	}
	audience := req.TargetAudience
	if audience == "" {
		audience = "general audience interested in " + req.Niche
	}
	count := req.Count
	if count == 0 {
		count = 5
	}

	contextStr := ""
	if accountCtx != nil {
		contextStr = fmt.Sprintf("Account context: Niche=%s, Top themes=%s, Avg engagement=%.2f%%",
			accountCtx.Niche, strings.Join(accountCtx.TopThemes, ", "), accountCtx.AvgEngagement*100)
	}

	prompt := fmt.Sprintf(`Generate %s content for a %s creator.

Topic: %s
Niche: %s
Tone: %s
Target audience: %s
Count: %d variations
%s

Platform specifics: %s

%s`,
		req.ContentType, req.Platform,
		req.Topic, req.Niche, tone, audience, count,
		contextStr,
		platformSpecifics[req.Platform],
		generationSchema(req.ContentType),
	)

	var out json.RawMessage
	if err := c.complete(ctx, generationSystemPrompt, prompt, c.cfg.Anthropic.MaxTokens, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// complete sends one user message and unmarshals the extracted JSON reply
// into out. Overloaded and upstream errors retry with backoff, everything
// else fails fast.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int, out any) error {
	body := messagesRequest{
		Model:     c.cfg.Anthropic.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(raw))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("x-api-key", c.cfg.Anthropic.APIKey)
		req.Header.Set("anthropic-version", apiVersion)
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return fmt.Errorf("anthropic upstream %d", res.StatusCode)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			errBody, _ := io.ReadAll(res.Body)
			return retry.Permanent(fmt.Errorf("anthropic returned %d: %s", res.StatusCode, string(errBody)))
		}

		var resp messagesResponse
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			return retry.Permanent(err)
		}
		for _, block := range resp.Content {
			if block.Type == "text" {
				text = block.Text
				break
			}
		}
		return nil
	}

	if err := retry.Do(ctx, c.logger, "Anthropic messages", operation, retry.DefaultConfig()); err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(intelligence.ExtractJSON(text)), out); err != nil {
		return fmt.Errorf("malformed model reply: %w", err)
	}
	return nil
}
