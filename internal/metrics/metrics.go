// Package metrics holds the pure scoring calculators. No I/O, no clocks
// beyond the reference time passed in, so every function is trivially
// testable against golden values.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/growthlens/growthlens/internal/domain"
)

// Config carries the scoring constants so they can be tuned and tested
// independently of the calculation logic.
type Config struct {
	// EngagementBenchmarks maps platform to the typical engagement rate a
	// healthy account of that platform sees.
	EngagementBenchmarks map[domain.Platform]float64

	// Hashtag ladder thresholds.
	HashtagUniqueHigh    int // unique tags above this earn the big bonus
	HashtagUniqueMid     int
	HashtagPerPostHigh   float64 // avg tags/post upper bound of the sweet spot
	HashtagPerPostLow    float64
	HashtagPerPostMidLow float64

	// Composite growth weights, fractions summing to 1.
	WeightEngagement     float64
	WeightContentQuality float64
	WeightHashtag        float64
	WeightConsistency    float64
	WeightBranding       float64

	// ConsistencyMinPosts is the minimum sample before a consistency score
	// is meaningful.
	ConsistencyMinPosts int
}

func DefaultConfig() Config {
	return Config{
		EngagementBenchmarks: map[domain.Platform]float64{
			domain.PlatformTikTok:    0.06,
			domain.PlatformInstagram: 0.035,
			domain.PlatformYouTube:   0.04,
			domain.PlatformFacebook:  0.008,
		},
		HashtagUniqueHigh:    30,
		HashtagUniqueMid:     15,
		HashtagPerPostHigh:   15,
		HashtagPerPostLow:    5,
		HashtagPerPostMidLow: 3,
		WeightEngagement:     0.30,
		WeightContentQuality: 0.25,
		WeightHashtag:        0.15,
		WeightConsistency:    0.15,
		WeightBranding:       0.15,
		ConsistencyMinPosts:  4,
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// EngagementScore normalizes a raw engagement rate against the platform
// benchmark. A 20 point floor plus up to 80 points of benchmark-relative
// credit, so a zero rate still scores 20.
func (c Config) EngagementScore(platform domain.Platform, rate float64) int {
	benchmark, ok := c.EngagementBenchmarks[platform]
	if !ok || benchmark <= 0 {
		benchmark = c.EngagementBenchmarks[domain.PlatformInstagram]
	}
	score := int(math.Round(rate/benchmark*60 + 20))
	return clampScore(score)
}

// ConsistencyScore measures cadence regularity as the coefficient of
// variation of inter-post gaps. Fewer than ConsistencyMinPosts posts
// scores 0.
func (c Config) ConsistencyScore(posts []domain.Post) int {
	if len(posts) < c.ConsistencyMinPosts {
		return 0
	}

	sorted := make([]domain.Post, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PostedAt.Before(sorted[j].PostedAt)
	})

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].PostedAt.Sub(sorted[i-1].PostedAt).Hours()/24)
	}

	mean := 0.0
	for _, g := range gaps {
		mean += g
	}
	mean /= float64(len(gaps))
	if mean == 0 {
		// all posts share a timestamp, perfectly "regular"
		return 100
	}

	variance := 0.0
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))
	cv := math.Sqrt(variance) / mean

	return clampScore(int(math.Round((1 - math.Min(cv, 1)) * 100)))
}

// HashtagScore is the deterministic heuristic ladder over historical
// hashtag usage.
func (c Config) HashtagScore(posts []domain.Post) int {
	unique := map[string]struct{}{}
	total := 0
	for _, p := range posts {
		for _, tag := range p.Hashtags {
			unique[tag] = struct{}{}
		}
		total += len(p.Hashtags)
	}

	score := 50

	switch {
	case len(unique) > c.HashtagUniqueHigh:
		score += 15
	case len(unique) > c.HashtagUniqueMid:
		score += 8
	}

	if len(posts) > 0 {
		avgPerPost := float64(total) / float64(len(posts))
		switch {
		case avgPerPost >= c.HashtagPerPostLow && avgPerPost <= c.HashtagPerPostHigh:
			score += 20
		case avgPerPost >= c.HashtagPerPostMidLow && avgPerPost < c.HashtagPerPostLow:
			score += 10
		case avgPerPost > c.HashtagPerPostHigh:
			score -= 5
		}
	}

	if total > 0 {
		score += 15
	}

	return clampScore(score)
}

// GrowthScore is the weighted composite of the five component scores.
func (c Config) GrowthScore(engagement, contentQuality, hashtag, consistency, branding int) int {
	sum := float64(engagement)*c.WeightEngagement +
		float64(contentQuality)*c.WeightContentQuality +
		float64(hashtag)*c.WeightHashtag +
		float64(consistency)*c.WeightConsistency +
		float64(branding)*c.WeightBranding
	return clampScore(int(math.Round(sum)))
}

// ContentQualityScore blends hook strength, CTA usage and consistency.
// hookScore and ctaUsageRate are 0-1 fractions.
func (c Config) ContentQualityScore(hookScore, ctaUsageRate float64, consistency int) int {
	score := hookScore*40 + ctaUsageRate*30 + float64(consistency)/100*30
	return clampScore(int(math.Round(score)))
}

// BrandingScore blends cadence regularity with how confidently a niche was
// detected. nicheConfidence is a 0-1 fraction.
func (c Config) BrandingScore(consistency int, nicheConfidence float64) int {
	score := float64(consistency)*0.6 + nicheConfidence*100*0.4
	return clampScore(int(math.Round(score)))
}

// Cadence is the posting-rhythm summary surfaced on the report.
type Cadence struct {
	PostsPerWeek float64
	BestDays     []string
	BestHours    []int
}

type bucketStat struct {
	sum   float64
	count int
}

func (b bucketStat) avg() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sum / float64(b.count)
}

// PostingCadence buckets posts by UTC day-of-week and hour, ranks buckets
// by average engagement rate and surfaces the top three of each. Posts per
// week counts the trailing 90 days against 13 weeks.
func PostingCadence(posts []domain.Post, now time.Time) Cadence {
	dayStats := map[string]*bucketStat{}
	hourStats := map[int]*bucketStat{}

	cutoff := now.AddDate(0, 0, -90)
	recent := 0

	for _, p := range posts {
		at := p.PostedAt.UTC()
		day := at.Weekday().String()
		if dayStats[day] == nil {
			dayStats[day] = &bucketStat{}
		}
		dayStats[day].sum += p.EngagementRate
		dayStats[day].count++

		if hourStats[at.Hour()] == nil {
			hourStats[at.Hour()] = &bucketStat{}
		}
		hourStats[at.Hour()].sum += p.EngagementRate
		hourStats[at.Hour()].count++

		if p.PostedAt.After(cutoff) {
			recent++
		}
	}

	days := make([]string, 0, len(dayStats))
	for d := range dayStats {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		a, b := dayStats[days[i]].avg(), dayStats[days[j]].avg()
		if a != b {
			return a > b
		}
		return days[i] < days[j]
	})
	if len(days) > 3 {
		days = days[:3]
	}

	hours := make([]int, 0, len(hourStats))
	for h := range hourStats {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		a, b := hourStats[hours[i]].avg(), hourStats[hours[j]].avg()
		if a != b {
			return a > b
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}

	return Cadence{
		PostsPerWeek: math.Round(float64(recent)/13*10) / 10,
		BestDays:     days,
		BestHours:    hours,
	}
}

// Aggregates are the simple per-batch averages surfaced on the report.
type Aggregates struct {
	AvgEngagementRate float64
	AvgLikes          int
	AvgComments       int
	AvgShares         int
	AvgViews          int
	AvgCaptionLength  int
}

func Aggregate(posts []domain.Post) Aggregates {
	if len(posts) == 0 {
		return Aggregates{}
	}

	var rate float64
	var likes, comments, shares, views, caption int
	for _, p := range posts {
		rate += p.EngagementRate
		likes += p.Likes
		comments += p.Comments
		shares += p.Shares
		views += p.Views
		caption += len([]rune(p.Caption))
	}

	n := len(posts)
	return Aggregates{
		AvgEngagementRate: rate / float64(n),
		AvgLikes:          likes / n,
		AvgComments:       comments / n,
		AvgShares:         shares / n,
		AvgViews:          views / n,
		AvgCaptionLength:  caption / n,
	}
}

// SentimentLabel maps a mean sentiment polarity in [-1,1] to a label.
func SentimentLabel(mean float64) string {
	switch {
	case mean > 0.2:
		return "positive"
	case mean < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

// TopFormats ranks content types by average engagement rate, best first.
func TopFormats(posts []domain.Post) []domain.ContentType {
	stats := map[domain.ContentType]*bucketStat{}
	for _, p := range posts {
		if stats[p.ContentType] == nil {
			stats[p.ContentType] = &bucketStat{}
		}
		stats[p.ContentType].sum += p.EngagementRate
		stats[p.ContentType].count++
	}

	formats := make([]domain.ContentType, 0, len(stats))
	for f := range stats {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool {
		a, b := stats[formats[i]].avg(), stats[formats[j]].avg()
		if a != b {
			return a > b
		}
		return formats[i] < formats[j]
	})
	if len(formats) > 3 {
		formats = formats[:3]
	}
	return formats
}

const (
	topPostCount   = 5
	worstPostCount = 3
)

func sortByRate(posts []domain.Post, desc bool) []domain.Post {
	sorted := make([]domain.Post, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool {
		if desc {
			return sorted[i].EngagementRate > sorted[j].EngagementRate
		}
		return sorted[i].EngagementRate < sorted[j].EngagementRate
	})
	return sorted
}

// TopPosts returns refs to the five highest-engagement posts.
func TopPosts(posts []domain.Post) []domain.PostRef {
	sorted := sortByRate(posts, true)
	if len(sorted) > topPostCount {
		sorted = sorted[:topPostCount]
	}
	refs := make([]domain.PostRef, 0, len(sorted))
	for _, p := range sorted {
		refs = append(refs, domain.PostRef{
			PostID: p.ID,
			Reason: fmt.Sprintf("Top engagement rate of %.2f%%", p.EngagementRate*100),
			Metric: fmt.Sprintf("%.4f", p.EngagementRate),
		})
	}
	return refs
}

// WorstPosts returns refs to the three lowest-engagement posts.
func WorstPosts(posts []domain.Post) []domain.PostRef {
	sorted := sortByRate(posts, false)
	if len(sorted) > worstPostCount {
		sorted = sorted[:worstPostCount]
	}
	refs := make([]domain.PostRef, 0, len(sorted))
	for _, p := range sorted {
		refs = append(refs, domain.PostRef{
			PostID: p.ID,
			Reason: fmt.Sprintf("Low engagement rate of %.2f%%", p.EngagementRate*100),
			Metric: fmt.Sprintf("%.4f", p.EngagementRate),
		})
	}
	return refs
}
