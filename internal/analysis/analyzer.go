// Package analysis extracts brand and competitor mentions from raw model
// answers. Everything here is pure string work: no I/O, no clocks, so the
// orchestrator can run it after all network results are collected.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/geolens/visibility-bot/internal/models"
)

// Result is the analyzer's verdict for one response text.
type Result struct {
	BrandMentioned bool
	BrandPosition  int // 1-based rank, 0 = unranked
	MarketPosition string
	Sentiment      string
	Competitors    []models.CompetitorMention
}

// Market position labels, matched in priority order against the context
// window around the first brand occurrence.
const (
	PositionMarketLeader   = "Market Leader"
	PositionWellKnown      = "Well-Known Brand"
	PositionEmerging       = "Emerging Brand"
	PositionAlternative    = "Alternative Option"
	PositionMentionedBrand = "Mentioned Brand"
)

// listMarkerPattern matches the tokens that introduce list items: numbered
// items ("3." / "3)"), bullets ("*", "•") and capitalized "Name:" headers.
var listMarkerPattern = regexp.MustCompile(`\d+[.)]\s|\*\s|•\s|(?:[A-Z][a-z]+\s?)+:`)

// Sentiment lexicons. Matching is whole-word and case-insensitive; "leader"
// rides along with "leading" so ranked-list phrasing counts as positive.
var (
	positivePattern = regexp.MustCompile(`\b(great|excellent|good|best|top|leader|leading|innovative|trusted|reliable|recommended|quality|superior)\b`)
	negativePattern = regexp.MustCompile(`\b(bad|poor|worst|avoid|disappointing|expensive|overpriced|unreliable|outdated|limited|problem|issue)\b`)
)

const (
	marketPositionWindow = 100
	sentimentWindow      = 150
)

// Analyze inspects responseText for the brand and each competitor.
// Presence is unanchored case-insensitive substring matching, so a brand
// name that is a substring of a longer word still counts; competitors are
// evaluated against the full original text, never a brand-centered window.
func Analyze(responseText, brand string, competitors []string) Result {
	result := Result{Sentiment: models.SentimentNeutral}

	if brand != "" {
		if idx := indexFold(responseText, brand); idx >= 0 {
			result.BrandMentioned = true
			result.BrandPosition = rankAt(responseText, idx)
			result.MarketPosition = classifyMarketPosition(responseText, idx)
			result.Sentiment = classifySentiment(responseText, idx)
		}
	}

	result.Competitors = findCompetitors(responseText, competitors)

	return result
}

// indexFold reports the byte offset in s of the first case-insensitive
// occurrence of substr. Case folding can change byte lengths ("Ⱥ" is two
// bytes, "ⱥ" three), so an index found in a folded copy is not a safe
// offset into s; the returned offset always is.
func indexFold(s, substr string) int {
	folded := strings.ToLower(substr)
	lower := strings.ToLower(s)
	if len(lower) == len(s) {
		return strings.Index(lower, folded)
	}

	for i := range s {
		if strings.HasPrefix(strings.ToLower(s[i:]), folded) {
			return i
		}
	}
	return -1
}

// rankAt counts list markers in the text preceding the mention. The marker
// that introduces the mention's own list item is not counted ahead of it:
// a brand sitting in the first item ranks #1.
func rankAt(text string, idx int) int {
	before := text[:idx]
	markers := listMarkerPattern.FindAllStringIndex(before, -1)
	if len(markers) == 0 {
		return 0
	}

	last := markers[len(markers)-1]
	if strings.TrimSpace(before[last[1]:]) == "" {
		return len(markers)
	}
	return len(markers) + 1
}

func classifyMarketPosition(text string, idx int) string {
	context := strings.ToLower(window(text, idx, marketPositionWindow))

	switch {
	case containsAny(context, "leader", "top", "best"):
		return PositionMarketLeader
	case containsAny(context, "popular", "well-known"):
		return PositionWellKnown
	case containsAny(context, "emerging", "growing"):
		return PositionEmerging
	case containsAny(context, "alternative", "competitor"):
		return PositionAlternative
	default:
		return PositionMentionedBrand
	}
}

func classifySentiment(text string, idx int) string {
	context := strings.ToLower(window(text, idx, sentimentWindow))

	positive := len(positivePattern.FindAllString(context, -1))
	negative := len(negativePattern.FindAllString(context, -1))

	if positive > negative {
		return models.SentimentPositive
	}
	if negative > positive {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

func findCompetitors(text string, competitors []string) []models.CompetitorMention {
	type hit struct {
		mention models.CompetitorMention
		offset  int
	}

	seen := make(map[string]bool)
	var hits []hit

	for _, name := range competitors {
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}

		idx := indexFold(text, name)
		if idx < 0 {
			continue
		}

		seen[key] = true
		hits = append(hits, hit{
			mention: models.CompetitorMention{Name: name, Position: rankAt(text, idx)},
			offset:  idx,
		})
	}

	// Order by first occurrence in the text
	sort.Slice(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	mentions := make([]models.CompetitorMention, 0, len(hits))
	for _, h := range hits {
		mentions = append(mentions, h.mention)
	}
	return mentions
}

func window(s string, center, radius int) string {
	start := center - radius
	if start < 0 {
		start = 0
	}
	end := center + radius
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
