package analyzerimpl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/analyzer"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/intelligence"
	"github.com/growthlens/growthlens/internal/metrics"
	"github.com/growthlens/growthlens/internal/nlp"
	"github.com/growthlens/growthlens/internal/notify"
	"github.com/growthlens/growthlens/internal/platform"
	"github.com/growthlens/growthlens/internal/repositories/account"
	"github.com/growthlens/growthlens/internal/repositories/job"
	"github.com/growthlens/growthlens/internal/repositories/post"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/internal/tokens"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

// How many posts get the per-post LLM hook fallback when the NLP service
// is down.
const hookFallbackLimit = 10

// When neither the NLP service nor the fallback produced hook data, the
// hook score defaults to a neutral midpoint rather than zeroing the
// content-quality component.
const neutralHookScore = 0.5

type Opts struct {
	fx.In

	Logger       logger.Logger
	Registry     *platform.Registry
	Tokens       tokens.Manager
	Intelligence intelligence.Client
	NLP          nlp.Client
	Notifier     notify.Notifier
	AccountRepo  account.Repository
	PostRepo     post.Repository
	JobRepo      job.Repository
	ReportRepo   report.Repository
}

type ServiceImpl struct {
	logger       logger.Logger
	registry     *platform.Registry
	tokens       tokens.Manager
	intelligence intelligence.Client
	nlp          nlp.Client
	notifier     notify.Notifier
	accountRepo  account.Repository
	postRepo     post.Repository
	jobRepo      job.Repository
	reportRepo   report.Repository
	scoring      metrics.Config
	now          func() time.Time
}

func New(opts Opts) *ServiceImpl {
	return &ServiceImpl{
		logger:       opts.Logger.WithComponent("Analyzer"),
		registry:     opts.Registry,
		tokens:       opts.Tokens,
		intelligence: opts.Intelligence,
		nlp:          opts.NLP,
		notifier:     opts.Notifier,
		accountRepo:  opts.AccountRepo,
		postRepo:     opts.PostRepo,
		jobRepo:      opts.JobRepo,
		reportRepo:   opts.ReportRepo,
		scoring:      metrics.DefaultConfig(),
		now:          time.Now,
	}
}

var _ analyzer.Service = (*ServiceImpl)(nil)

func (s *ServiceImpl) Run(ctx context.Context, jobID, accountID uuid.UUID, maxPosts int) error {
	if err := s.run(ctx, jobID, accountID, maxPosts); err != nil {
		s.logger.Error("Analysis job failed", "job_id", jobID, "error", err)
		if failErr := s.jobRepo.Fail(ctx, jobID, errors.GetMessage(err)); failErr != nil {
			s.logger.Error("Failed to record job failure", "job_id", jobID, "error", failErr)
		}
		return err
	}
	return nil
}

func (s *ServiceImpl) run(ctx context.Context, jobID, accountID uuid.UUID, maxPosts int) error {
	if err := s.jobRepo.MarkProcessing(ctx, jobID); err != nil {
		return errors.Wrap(err, "failed to start job")
	}
	if err := s.jobRepo.UpdateProgress(ctx, jobID, 5, "Fetching posts..."); err != nil {
		s.logger.Warn("Progress update failed", "job_id", jobID, "error", err)
	}

	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "failed to load account")
	}
	if !acc.IsActive {
		return errors.WrapWithCode(errors.ErrInvalidInput, "ACCOUNT_INACTIVE", "account is disconnected")
	}

	fresh, err := s.tokens.EnsureFresh(ctx, *acc)
	if err != nil {
		return err
	}

	adapter, err := s.registry.For(fresh.Platform)
	if err != nil {
		return err
	}

	// Profile refresh keeps follower counts current. Not worth failing a
	// whole analysis over.
	if snap, err := adapter.GetProfile(ctx, fresh.AccessToken); err != nil {
		s.logger.Warn("Profile refresh failed", "account_id", accountID, "error", err)
	} else if err := s.accountRepo.UpdateSnapshot(ctx, accountID, snap); err != nil {
		s.logger.Warn("Profile snapshot persist failed", "account_id", accountID, "error", err)
	}

	posts, err := adapter.FetchPosts(ctx, fresh, maxPosts)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return errors.WrapWithCode(errors.ErrInvalidInput, "NO_POSTS", "account has no posts to analyze")
	}

	if err := s.postRepo.UpsertBatch(ctx, posts); err != nil {
		return errors.Wrap(err, "failed to store posts")
	}
	if err := s.jobRepo.SetPostsFetched(ctx, jobID, len(posts)); err != nil {
		s.logger.Warn("Posts-fetched update failed", "job_id", jobID, "error", err)
	}
	if err := s.accountRepo.TouchLastSynced(ctx, accountID); err != nil {
		s.logger.Warn("Last-synced update failed", "account_id", accountID, "error", err)
	}

	// Re-read so every post carries its stored id, which the top/worst
	// refs point at.
	stored, err := s.postRepo.ListRecentByAccount(ctx, accountID, len(posts))
	if err == nil && len(stored) > 0 {
		posts = stored
	}

	s.progress(ctx, jobID, 15, "Detecting niche and content themes...")
	niche, err := s.intelligence.DetectNiche(ctx, posts)
	if err != nil {
		return errors.Wrap(err, "niche detection failed")
	}

	s.progress(ctx, jobID, 30, "Analyzing hashtag effectiveness...")
	var allHashtags []string
	for _, p := range posts {
		allHashtags = append(allHashtags, p.Hashtags...)
	}
	hashtagAnalysis, err := s.intelligence.AnalyzeHashtags(ctx, allHashtags, niche.Niche, fresh.Platform)
	if err != nil {
		return errors.Wrap(err, "hashtag analysis failed")
	}

	s.progress(ctx, jobID, 45, "Analyzing content hooks and CTAs...")
	hookScores, sentimentScores, ctaCount := s.hookAnalysis(ctx, fresh.Platform, posts)

	s.progress(ctx, jobID, 60, "Computing engagement metrics...")
	agg := metrics.Aggregate(posts)
	cadence := metrics.PostingCadence(posts, s.now())

	avgHookScore := neutralHookScore
	if len(hookScores) > 0 {
		sum := 0.0
		for _, h := range hookScores {
			sum += h
		}
		avgHookScore = sum / float64(len(hookScores))
	}
	ctaUsageRate := float64(ctaCount) / float64(len(posts))

	avgSentiment := 0.0
	if len(sentimentScores) > 0 {
		for _, v := range sentimentScores {
			avgSentiment += v
		}
		avgSentiment /= float64(len(sentimentScores))
	}

	engagementScore := s.scoring.EngagementScore(fresh.Platform, agg.AvgEngagementRate)
	consistencyScore := s.scoring.ConsistencyScore(posts)
	hashtagScore := s.scoring.HashtagScore(posts)
	contentQualityScore := s.scoring.ContentQualityScore(avgHookScore, ctaUsageRate, consistencyScore)
	brandingScore := s.scoring.BrandingScore(consistencyScore, niche.Confidence)
	growthScore := s.scoring.GrowthScore(engagementScore, contentQualityScore, hashtagScore, consistencyScore, brandingScore)
	topFormats := metrics.TopFormats(posts)

	s.progress(ctx, jobID, 75, "Generating strategic insights...")
	insights, err := s.intelligence.GenerateInsights(ctx, intelligence.InsightsInput{
		Platform:           fresh.Platform,
		Niche:              niche.Niche,
		AvgEngagementRate:  agg.AvgEngagementRate,
		AvgHookScore:       avgHookScore,
		CTAUsageRate:       ctaUsageRate,
		PostingConsistency: float64(consistencyScore) / 100,
		HashtagScore:       hashtagScore,
		BrandingScore:      brandingScore,
		ContentThemes:      niche.Themes,
		TopFormats:         topFormats,
		BestDays:           cadence.BestDays,
		BestHours:          cadence.BestHours,
		AvgPostsPerWeek:    cadence.PostsPerWeek,
	})
	if err != nil {
		return errors.Wrap(err, "insight generation failed")
	}

	s.progress(ctx, jobID, 90, "Saving analysis report...")
	rpt := domain.AnalysisReport{
		JobID:     jobID,
		AccountID: accountID,
		UserID:    fresh.UserID,

		GrowthScore:         growthScore,
		ContentQualityScore: contentQualityScore,
		HashtagScore:        hashtagScore,
		EngagementScore:     engagementScore,
		ConsistencyScore:    consistencyScore,
		BrandingScore:       brandingScore,
		HookStrengthScore:   clampPercent(avgHookScore),
		CTAScore:            clampPercent(ctaUsageRate),

		DetectedNiche:   niche.Niche,
		NicheConfidence: niche.Confidence,
		NicheKeywords:   niche.Keywords,
		ContentThemes:   niche.Themes,

		HashtagEffectiveness: hashtagAnalysis,
		RecommendedHashtags:  tagsByRecommendation(hashtagAnalysis, "add"),
		OverusedHashtags:     overusedTags(allHashtags, len(posts)),
		UnderusedHashtags:    []string{},

		AvgPostsPerWeek:    cadence.PostsPerWeek,
		BestDays:           cadence.BestDays,
		BestHours:          cadence.BestHours,
		PostingConsistency: float64(consistencyScore) / 100,

		AvgEngagementRate: agg.AvgEngagementRate,
		AvgLikes:          agg.AvgLikes,
		AvgComments:       agg.AvgComments,
		AvgShares:         agg.AvgShares,
		AvgViews:          agg.AvgViews,

		TopPerformingFormats: topFormats,
		AvgHookScore:         avgHookScore,
		CTAUsageRate:         ctaUsageRate,
		CaptionSentiment:     metrics.SentimentLabel(avgSentiment),
		AvgCaptionLength:     agg.AvgCaptionLength,

		Strengths:          insights.Strengths,
		Weaknesses:         insights.Weaknesses,
		Opportunities:      insights.Opportunities,
		ImprovementRoadmap: insights.Roadmap,
		ExecutiveSummary:   insights.ExecutiveSummary,

		TopPosts:   metrics.TopPosts(posts),
		WorstPosts: metrics.WorstPosts(posts),
	}

	reportID, err := s.reportRepo.Create(ctx, rpt)
	if err != nil {
		return errors.Wrap(err, "failed to save report")
	}
	rpt.ID = reportID

	if err := s.jobRepo.Complete(ctx, jobID, len(posts)); err != nil {
		return errors.Wrap(err, "failed to complete job")
	}

	if err := s.notifier.AnalysisReady(ctx, fresh.UserID, rpt); err != nil {
		s.logger.Warn("Analysis-ready notification failed", "job_id", jobID, "error", err)
	}

	s.logger.Info("Analysis complete", "job_id", jobID, "growth_score", growthScore, "posts", len(posts))
	return nil
}

// hookAnalysis tries the NLP service first, then falls back to per-post
// LLM hook scoring for a small sample. The fallback yields no sentiment or
// CTA signal.
func (s *ServiceImpl) hookAnalysis(ctx context.Context, p domain.Platform, posts []domain.Post) (hookScores, sentimentScores []float64, ctaCount int) {
	batch, err := s.nlp.AnalyzePosts(ctx, p, posts)
	if err == nil {
		return batch.HookScores, batch.SentimentScores, batch.CTACount
	}
	s.logger.Warn("NLP service unavailable, falling back to per-post hook scoring", "error", err)

	sample := posts
	if len(sample) > hookFallbackLimit {
		sample = sample[:hookFallbackLimit]
	}
	for _, post := range sample {
		hook, err := s.intelligence.ScoreHook(ctx, post.Caption)
		if err != nil {
			s.logger.Warn("Hook fallback failed for post", "post_id", post.PlatformPostID, "error", err)
			continue
		}
		hookScores = append(hookScores, hook.Score)
	}
	return hookScores, nil, 0
}

func (s *ServiceImpl) progress(ctx context.Context, jobID uuid.UUID, pct int, step string) {
	if err := s.jobRepo.UpdateProgress(ctx, jobID, pct, step); err != nil {
		s.logger.Warn("Progress update failed", "job_id", jobID, "progress", pct, "error", err)
	}
}

func clampPercent(fraction float64) int {
	v := int(fraction*100 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// overusedTags flags tags appearing on more than 80% of posts.
func overusedTags(tags []string, postCount int) []string {
	counts := map[string]int{}
	var order []string
	for _, tag := range tags {
		if counts[tag] == 0 {
			order = append(order, tag)
		}
		counts[tag]++
	}

	overused := []string{}
	threshold := float64(postCount) * 0.8
	for _, tag := range order {
		if float64(counts[tag]) > threshold {
			overused = append(overused, tag)
		}
	}
	return overused
}

func tagsByRecommendation(analysis []domain.HashtagAnalysis, recommendation string) []string {
	out := []string{}
	for _, h := range analysis {
		if h.Recommendation == recommendation {
			out = append(out, h.Tag)
		}
	}
	return out
}
