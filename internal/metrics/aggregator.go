// Package metrics folds analyzed responses into cumulative visibility
// metrics. Merge is a total, deterministic function of the history it is
// given; it never fails on well-formed input and performs no I/O.
package metrics

import (
	"math"
	"time"

	"github.com/geolens/visibility-bot/internal/models"
)

// Score weights for the GEO score: brand mention rate dominates, average
// sentiment tempers it.
const (
	mentionRateWeight = 0.7
	sentimentWeight   = 0.3
)

const dateLayout = "2006-01-02"

// Merge appends newResponses to the existing history and recomputes every
// derived field from the combined history. Daily buckets are rebuilt from
// scratch, so merging the same day twice replaces rather than accumulates
// the day's entry, and merging an empty batch is a no-op.
func Merge(existing models.VisibilityMetrics, newResponses []models.AnalyzedResponse) models.VisibilityMetrics {
	history := make([]models.AnalyzedResponse, 0, len(existing.History)+len(newResponses))
	history = append(history, existing.History...)
	history = append(history, newResponses...)

	updated := models.VisibilityMetrics{
		History:      history,
		DailyMetrics: dailyMetrics(history),
	}

	total := len(history)
	if total == 0 {
		return updated
	}

	brandMentions := 0
	competitorMentions := 0
	sentimentSum := 0.0
	modelSeen := make(map[string]bool)
	modelMentions := make(map[string]int)
	competitorCounts := make(map[string]int)
	var latest time.Time

	for _, r := range history {
		if r.BrandMentioned {
			brandMentions++
			modelMentions[r.Provider]++
		}
		competitorMentions += len(r.CompetitorsMentioned)
		sentimentSum += sentimentScore(r.Sentiment)
		modelSeen[r.Provider] = true
		for _, name := range r.CompetitorNames() {
			competitorCounts[name]++
		}
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}

	brandMentionRate := 100 * float64(brandMentions) / float64(total)
	averageSentiment := sentimentSum / float64(total)

	updated.BrandMentions = brandMentions
	updated.CompetitorMentions = competitorMentions
	updated.OverallPresence = presence(brandMentions, competitorMentions, total)
	updated.AverageSentiment = averageSentiment
	updated.GeoScore = mentionRateWeight*brandMentionRate + sentimentWeight*100*averageSentiment
	updated.ModelsMonitored = len(modelSeen)
	updated.TopModel = topModel(modelMentions)
	updated.CompetitorScores = competitorScores(competitorCounts, total)
	updated.UpdatedAt = latest

	return updated
}

// presence computes overallPresence, capped at 100: responses carrying
// several competitor mentions each would otherwise push the raw
// (bm+cm)/(2N) ratio past the declared percentage range.
func presence(brandMentions, competitorMentions, total int) float64 {
	v := 100 * float64(brandMentions+competitorMentions) / float64(2*total)
	return math.Min(v, 100)
}

func sentimentScore(sentiment string) float64 {
	switch sentiment {
	case models.SentimentPositive:
		return 1.0
	case models.SentimentNegative:
		return 0.0
	default:
		return 0.5
	}
}

// dailyMetrics groups history by the UTC calendar date of each response
// and computes that date's rates from only that date's responses.
func dailyMetrics(history []models.AnalyzedResponse) map[string]models.DailyMetric {
	type bucket struct {
		brandMentions      int
		competitorMentions int
		total              int
	}

	buckets := make(map[string]*bucket)
	for _, r := range history {
		date := r.Timestamp.UTC().Format(dateLayout)
		b := buckets[date]
		if b == nil {
			b = &bucket{}
			buckets[date] = b
		}
		if r.BrandMentioned {
			b.brandMentions++
		}
		b.competitorMentions += len(r.CompetitorsMentioned)
		b.total++
	}

	daily := make(map[string]models.DailyMetric, len(buckets))
	for date, b := range buckets {
		n := float64(b.total)
		daily[date] = models.DailyMetric{
			Date:                  date,
			BrandMentionRate:      100 * float64(b.brandMentions) / n,
			CompetitorMentionRate: 100 * float64(b.competitorMentions) / n,
			OverallPresence:       presence(b.brandMentions, b.competitorMentions, b.total),
		}
	}
	return daily
}

func topModel(modelMentions map[string]int) string {
	top := ""
	max := 0
	for model, mentions := range modelMentions {
		if mentions > max || (mentions == max && model < top) {
			top = model
			max = mentions
		}
	}
	return top
}

func competitorScores(counts map[string]int, total int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	scores := make(map[string]int, len(counts))
	for name, mentions := range counts {
		scores[name] = int(math.Round(100 * float64(mentions) / float64(total)))
	}
	return scores
}
