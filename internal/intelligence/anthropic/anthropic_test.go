package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/intelligence"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.Anthropic.APIKey = "test-key"
	cfg.Anthropic.Model = "claude-sonnet-4-5"
	cfg.Anthropic.MaxTokens = 8096

	return &Client{
		cfg:        cfg,
		logger:     logger.NewNop(),
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
	}
}

func textReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(b)
}

func TestDetectNicheParsesFencedReply(t *testing.T) {
	var gotBody messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Write([]byte(textReply("```json\n{\"niche\":\"home cooking\",\"confidence\":0.92,\"keywords\":[\"recipes\"],\"themes\":[{\"theme\":\"meal prep\",\"frequency\":12,\"avg_engagement_rate\":0.05,\"is_dominant\":true}]}\n```")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.DetectNiche(context.Background(), []domain.Post{
		{Caption: "easy pasta recipe", Hashtags: []string{"cooking"}, ContentType: domain.ContentTypeReel},
	})
	require.NoError(t, err)

	assert.Equal(t, "home cooking", got.Niche)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	require.Len(t, got.Themes, 1)
	assert.True(t, got.Themes[0].IsDominant)
	assert.Equal(t, "claude-sonnet-4-5", gotBody.Model)
}

func TestDetectNicheCapsSampleAndCaption(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[0].Content
		w.Write([]byte(textReply(`{"niche":"x","confidence":0.5,"keywords":[],"themes":[]}`)))
	}))
	defer srv.Close()

	longCaption := strings.Repeat("a", 1000)
	posts := make([]domain.Post, 80)
	for i := range posts {
		posts[i] = domain.Post{Caption: longCaption}
	}

	c := newTestClient(srv.URL)
	_, err := c.DetectNiche(context.Background(), posts)
	require.NoError(t, err)

	assert.Contains(t, prompt, "these 50 posts")
	assert.NotContains(t, prompt, strings.Repeat("a", 301))
}

func TestDetectNicheTruncatesOnRuneBoundary(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[0].Content
		w.Write([]byte(textReply(`{"niche":"x","confidence":0.5,"keywords":[],"themes":[]}`)))
	}))
	defer srv.Close()

	// two bytes per rune, so a byte-level cut at 300 would land mid-rune
	c := newTestClient(srv.URL)
	_, err := c.DetectNiche(context.Background(), []domain.Post{
		{Caption: strings.Repeat("é", 400)},
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(prompt))
	assert.NotContains(t, prompt, "�")
	assert.Equal(t, captionTruncate, strings.Count(prompt, "é"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "", truncateRunes("", 3))
}

func TestAnalyzeHashtagsCapsToTopThirty(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[0].Content
		w.Write([]byte(textReply(`[{"tag":"#go","reach_score":70,"competition":"medium","relevance":0.9,"recommendation":"keep"}]`)))
	}))
	defer srv.Close()

	var tags []string
	tags = append(tags, "hot", "hot", "hot") // most frequent
	for i := 0; i < 40; i++ {
		tags = append(tags, fmt.Sprintf("tag%d", i))
	}

	c := newTestClient(srv.URL)
	got, err := c.AnalyzeHashtags(context.Background(), tags, "fitness", domain.PlatformInstagram)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].Recommendation)

	assert.Contains(t, prompt, `"hot"`)
	assert.NotContains(t, prompt, "tag39") // beyond the top-30 cap
}

func TestGenerateInsightsMalformedReplyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textReply("I could not produce the analysis, sorry.")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GenerateInsights(context.Background(), intelligence.InsightsInput{
		Platform: domain.PlatformTikTok,
		Niche:    "gaming",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed model reply")
}

func TestScoreHookRetriesOverload(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(textReply(`{"score":0.8,"hook_text":"Did you know","hook_type":"question","feedback":"solid"}`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.ScoreHook(context.Background(), "Did you know this one trick?")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.Score, 1e-9)
	assert.Equal(t, 2, calls)
}

func TestScoreHookBadRequestNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ScoreHook(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGenerateContentReturnsRawJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textReply(`{"hooks":[{"text":"Stop scrolling","type":"statement","psychology":"pattern interrupt","expected_retention":"high"}]}`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	raw, err := c.GenerateContent(context.Background(), intelligence.GenerateRequest{
		Platform:    domain.PlatformTikTok,
		ContentType: "hook",
		Topic:       "morning routines",
		Niche:       "productivity",
	}, nil)
	require.NoError(t, err)

	var parsed struct {
		Hooks []struct {
			Text string `json:"text"`
		} `json:"hooks"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Len(t, parsed.Hooks, 1)
	assert.Equal(t, "Stop scrolling", parsed.Hooks[0].Text)
}
