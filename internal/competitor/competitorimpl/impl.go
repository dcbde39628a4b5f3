package competitorimpl

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/competitor"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/nlp"
	"github.com/growthlens/growthlens/internal/repositories/account"
	"github.com/growthlens/growthlens/internal/repositories/comparison"
	competitorrepo "github.com/growthlens/growthlens/internal/repositories/competitor"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

const hashtagSuggestionLimit = 5

type Opts struct {
	fx.In

	Config         *config.Config
	Logger         logger.Logger
	NLP            nlp.Client
	AccountRepo    account.Repository
	ReportRepo     report.Repository
	CompetitorRepo competitorrepo.Repository
	ComparisonRepo comparison.Repository
}

type ServiceImpl struct {
	cfg            *config.Config
	logger         logger.Logger
	nlp            nlp.Client
	accountRepo    account.Repository
	reportRepo     report.Repository
	competitorRepo competitorrepo.Repository
	comparisonRepo comparison.Repository
	now            func() time.Time
}

func New(opts Opts) *ServiceImpl {
	return &ServiceImpl{
		cfg:            opts.Config,
		logger:         opts.Logger.WithComponent("Competitor"),
		nlp:            opts.NLP,
		accountRepo:    opts.AccountRepo,
		reportRepo:     opts.ReportRepo,
		competitorRepo: opts.CompetitorRepo,
		comparisonRepo: opts.ComparisonRepo,
		now:            time.Now,
	}
}

var _ competitor.Service = (*ServiceImpl)(nil)

// userBaseline is the user's side of the comparison, pulled from their
// latest report. Zero-valued when no report exists yet.
type userBaseline struct {
	reportID       *uuid.UUID
	engagementRate float64
	postsPerWeek   float64
	followers      int
	hashtags       []string
	formats        []string
}

func (s *ServiceImpl) Compare(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error) {
	comp, err := s.competitorRepo.GetByID(ctx, competitorID)
	if err != nil {
		return nil, err
	}
	if comp.UserID != userID {
		return nil, competitorrepo.ErrNotFound
	}

	base := s.loadBaseline(ctx, userID)

	// Positive gap means the competitor is ahead. Engagement gap is in
	// percentage points.
	engagementGap := round4((comp.AvgEngagementRate - base.engagementRate) * 100)
	followerGap := comp.Followers - base.followers
	postingGap := round2(comp.PostsPerWeek - base.postsPerWeek)

	hashtagDiffs := hashtagDifferences(base.hashtags, comp.TopHashtags)
	formatDiffs := formatDifferences(base.formats, comp.ContentFormats)

	actions := s.tacticalActions(ctx, comp, base, engagementGap, postingGap, hashtagDiffs)

	result := domain.CompetitorComparison{
		UserID:              userID,
		CompetitorID:        competitorID,
		ReportID:            base.reportID,
		EngagementGap:       engagementGap,
		FollowerGap:         followerGap,
		PostingFrequencyGap: postingGap,
		HashtagDifferences:  hashtagDiffs,
		FormatDifferences:   formatDiffs,
		TacticalActions:     actions,
	}

	saved, err := s.comparisonRepo.Upsert(ctx, result)
	if err != nil {
		// The analysis itself succeeded, so hand the caller the unsaved
		// result rather than failing the request.
		s.logger.Error("Comparison upsert failed", "user_id", userID, "competitor_id", competitorID, "error", err)
		return &result, nil
	}
	return saved, nil
}

func (s *ServiceImpl) GetComparison(ctx context.Context, userID, competitorID uuid.UUID) (*domain.CompetitorComparison, error) {
	return s.comparisonRepo.GetByUserAndCompetitor(ctx, userID, competitorID)
}

func (s *ServiceImpl) loadBaseline(ctx context.Context, userID uuid.UUID) userBaseline {
	rpt, err := s.reportRepo.LatestByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, report.ErrNotFound) {
			s.logger.Warn("Latest report lookup failed", "user_id", userID, "error", err)
		}
		return userBaseline{}
	}

	formats := make([]string, 0, len(rpt.TopPerformingFormats))
	for _, f := range rpt.TopPerformingFormats {
		formats = append(formats, string(f))
	}

	base := userBaseline{
		reportID:       &rpt.ID,
		engagementRate: rpt.AvgEngagementRate,
		postsPerWeek:   rpt.AvgPostsPerWeek,
		hashtags:       rpt.RecommendedHashtags,
		formats:        formats,
	}

	if acc, err := s.accountRepo.GetByID(ctx, rpt.AccountID); err == nil {
		base.followers = acc.Followers
	}
	return base
}

func (s *ServiceImpl) tacticalActions(
	ctx context.Context,
	comp *domain.Competitor,
	base userBaseline,
	engagementGap, postingGap float64,
	hashtagDiffs []domain.HashtagDiff,
) []domain.TacticalAction {
	tactics, err := s.nlp.CompetitorTactics(ctx, nlp.TacticsInput{
		Platform:           comp.Platform,
		CompetitorUsername: comp.Username,
		UserEngagementRate: base.engagementRate,
		UserPostsPerWeek:   base.postsPerWeek,
		UserHashtags:       base.hashtags,
	})
	if err == nil && len(tactics.TacticalActions) > 0 {
		return tactics.TacticalActions
	}
	if err != nil {
		s.logger.Warn("NLP tactics unavailable, using rule ladder", "competitor", comp.Username, "error", err)
	}

	return ruleLadder(comp, base, engagementGap, postingGap, hashtagDiffs)
}

// ruleLadder is the deterministic fallback ranking. It always yields at
// least one action.
func ruleLadder(
	comp *domain.Competitor,
	base userBaseline,
	engagementGap, postingGap float64,
	hashtagDiffs []domain.HashtagDiff,
) []domain.TacticalAction {
	var actions []domain.TacticalAction

	if engagementGap > 1 {
		actions = append(actions, domain.TacticalAction{
			Action: fmt.Sprintf(
				"Study @%s's top posts, their engagement rate of %.2f%% is %.2fpp above yours. Identify hook and CTA patterns.",
				comp.Username, comp.AvgEngagementRate*100, engagementGap),
			Priority:  "high",
			Rationale: "Engagement rate gap is the single highest-leverage metric to close.",
		})
	}

	if postingGap > 1 {
		actions = append(actions, domain.TacticalAction{
			Action: fmt.Sprintf(
				"Increase posting cadence. @%s posts %.1fx/week vs your %.1fx/week, %.1f extra posts/week of additional surface area.",
				comp.Username, comp.PostsPerWeek, base.postsPerWeek, postingGap),
			Priority:  "medium",
			Rationale: "Consistent volume compounds algorithmic reach over time.",
		})
	}

	var theirUnique []string
	for _, d := range hashtagDiffs {
		if d.CompetitorUses && !d.UserUses {
			theirUnique = append(theirUnique, "#"+d.Hashtag)
			if len(theirUnique) == hashtagSuggestionLimit {
				break
			}
		}
	}
	if len(theirUnique) > 0 {
		actions = append(actions, domain.TacticalAction{
			Action:    "Test competitor hashtags you're not using: " + strings.Join(theirUnique, ", "),
			Priority:  "medium",
			Rationale: "These tags already drive reach for a comparable account in your niche.",
		})
	}

	if len(actions) == 0 {
		actions = append(actions, domain.TacticalAction{
			Action: fmt.Sprintf(
				"Monitor @%s's next 10 posts and record which content formats and topics generate their highest engagement.",
				comp.Username),
			Priority:  "low",
			Rationale: "Baseline observation before making optimisation decisions.",
		})
	}
	return actions
}

func hashtagDifferences(userTags, compTags []string) []domain.HashtagDiff {
	userSet := map[string]bool{}
	for _, t := range userTags {
		userSet[t] = true
	}
	compSet := map[string]bool{}
	for _, t := range compTags {
		compSet[t] = true
	}

	seen := map[string]bool{}
	diffs := []domain.HashtagDiff{}
	for _, t := range append(append([]string{}, userTags...), compTags...) {
		if seen[t] {
			continue
		}
		seen[t] = true
		diffs = append(diffs, domain.HashtagDiff{
			Hashtag:        t,
			CompetitorUses: compSet[t],
			UserUses:       userSet[t],
		})
	}
	return diffs
}

// formatDifferences turns each side's ranked format list into a normalized
// frequency, rank 1 mapping to 1.0 and the last rank to 0.
func formatDifferences(userFormats, compFormats []string) []domain.FormatDiff {
	rankFreq := func(formats []string, f string) float64 {
		for i, candidate := range formats {
			if candidate == f {
				denom := float64(len(formats) - 1)
				if denom < 1 {
					denom = 1
				}
				return 1 - float64(i)/denom
			}
		}
		return 0
	}

	seen := map[string]bool{}
	diffs := []domain.FormatDiff{}
	for _, f := range append(append([]string{}, userFormats...), compFormats...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		diffs = append(diffs, domain.FormatDiff{
			Format:         f,
			CompetitorFreq: rankFreq(compFormats, f),
			UserFreq:       rankFreq(userFormats, f),
		})
	}
	return diffs
}

// RefreshStaleSnapshots re-scrapes every competitor whose snapshot is older
// than the configured cadence. Per-competitor failures are logged and
// skipped so one dead profile cannot stall the rest.
func (s *ServiceImpl) RefreshStaleSnapshots(ctx context.Context) error {
	cutoff := s.now().Add(-time.Duration(s.cfg.Competitor.RefreshHours) * time.Hour)

	stale, err := s.competitorRepo.ListStale(ctx, cutoff)
	if err != nil {
		return errors.Wrap(err, "failed to list stale competitors")
	}

	for _, comp := range stale {
		profile, err := s.nlp.ScrapeProfile(ctx, comp.Platform, comp.Username)
		if err != nil {
			s.logger.Warn("Competitor scrape failed", "competitor", comp.Username, "error", err)
			continue
		}

		updated := *comp
		updated.Followers = profile.Followers
		updated.AvgEngagementRate = profile.Engagement
		updated.PostsPerWeek = profile.PostsPerWeek

		if err := s.competitorRepo.UpdateSnapshot(ctx, comp.ID, updated); err != nil {
			s.logger.Warn("Competitor snapshot persist failed", "competitor", comp.Username, "error", err)
			continue
		}
		s.logger.Info("Competitor snapshot refreshed", "competitor", comp.Username, "followers", profile.Followers)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
