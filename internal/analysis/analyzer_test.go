package analysis

import (
	"testing"

	"github.com/geolens/visibility-bot/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAnalyze_RankedListWithLeaderContext(t *testing.T) {
	text := "1. Acme Corp is the leader. 2. Globex is a strong alternative."

	result := Analyze(text, "Acme Corp", []string{"Globex"})

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 1, result.BrandPosition)
	assert.Equal(t, PositionMarketLeader, result.MarketPosition)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)

	if assert.Len(t, result.Competitors, 1) {
		assert.Equal(t, "Globex", result.Competitors[0].Name)
		assert.Equal(t, 2, result.Competitors[0].Position)
	}
}

func TestAnalyze_BrandAbsentCompetitorPresent(t *testing.T) {
	text := "We recommend Globex over other options."

	result := Analyze(text, "Acme Corp", []string{"Globex"})

	assert.False(t, result.BrandMentioned)
	assert.Equal(t, 0, result.BrandPosition)
	assert.Empty(t, result.MarketPosition)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)

	if assert.Len(t, result.Competitors, 1) {
		assert.Equal(t, "Globex", result.Competitors[0].Name)
		assert.Equal(t, 0, result.Competitors[0].Position)
	}
}

func TestAnalyze_EmptyResponse(t *testing.T) {
	result := Analyze("", "Acme Corp", []string{"Globex"})

	assert.False(t, result.BrandMentioned)
	assert.Equal(t, 0, result.BrandPosition)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	assert.Empty(t, result.Competitors)
}

func TestAnalyze_BrandAbsentSentimentStaysNeutral(t *testing.T) {
	// Lexicon words without the brand must not move the sentiment
	result := Analyze("This is the best and most excellent product ever.", "Acme Corp", nil)

	assert.False(t, result.BrandMentioned)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
}

func TestAnalyze_CaseInsensitiveMatching(t *testing.T) {
	result := Analyze("ACME CORP is a trusted choice.", "acme corp", nil)

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)
}

func TestAnalyze_LengthChangingCaseFolds(t *testing.T) {
	// "Ⱥ" lowercases to "ⱥ", which is one byte longer, so offsets found in
	// a folded copy of the text do not line up with the original bytes.
	text := "ȺȺȺȺȺȺȺȺ Initech is the best choice."

	result := Analyze(text, "Initech", []string{"Globex", "Initech"})

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 0, result.BrandPosition)
	assert.Equal(t, PositionMarketLeader, result.MarketPosition)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)

	if assert.Len(t, result.Competitors, 1) {
		assert.Equal(t, "Initech", result.Competitors[0].Name)
	}
}

func TestAnalyze_LengthChangingCaseFoldsUppercaseBrand(t *testing.T) {
	result := Analyze("ȺȺȺȺ initech leads the market.", "INITECH", nil)

	assert.True(t, result.BrandMentioned)
}

func TestAnalyze_SubstringMatchAccepted(t *testing.T) {
	// No word-boundary requirement for brand presence; a brand name inside
	// a longer word still counts.
	result := Analyze("The PEAKFLOW system has no rivals.", "Peak", nil)

	assert.True(t, result.BrandMentioned)
}

func TestAnalyze_MentionedButUnranked(t *testing.T) {
	result := Analyze("Acme Corp makes accounting software for small firms.", "Acme Corp", nil)

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 0, result.BrandPosition)
	assert.Equal(t, PositionMentionedBrand, result.MarketPosition)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
}

func TestAnalyze_BulletListRank(t *testing.T) {
	text := "* Globex\n* Initech\n* Acme Corp"

	result := Analyze(text, "Acme Corp", []string{"Globex", "Initech"})

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 3, result.BrandPosition)

	if assert.Len(t, result.Competitors, 2) {
		assert.Equal(t, "Globex", result.Competitors[0].Name)
		assert.Equal(t, 1, result.Competitors[0].Position)
		assert.Equal(t, "Initech", result.Competitors[1].Name)
		assert.Equal(t, 2, result.Competitors[1].Position)
	}
}

func TestAnalyze_NegativeSentiment(t *testing.T) {
	result := Analyze("Avoid Acme Corp, the service is unreliable and overpriced.", "Acme Corp", nil)

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, models.SentimentNegative, result.Sentiment)
}

func TestAnalyze_MarketPositionLabels(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "Market leader",
			text:     "Acme Corp remains the top pick this year.",
			expected: PositionMarketLeader,
		},
		{
			name:     "Well-known brand",
			text:     "Acme Corp is a popular option in this space.",
			expected: PositionWellKnown,
		},
		{
			name:     "Emerging brand",
			text:     "Acme Corp is an emerging player worth watching.",
			expected: PositionEmerging,
		},
		{
			name:     "Alternative option",
			text:     "Acme Corp is a solid alternative for budget teams.",
			expected: PositionAlternative,
		},
		{
			name:     "Plain mention",
			text:     "Acme Corp ships tax preparation software.",
			expected: PositionMentionedBrand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.text, "Acme Corp", nil)
			assert.True(t, result.BrandMentioned)
			assert.Equal(t, tt.expected, result.MarketPosition)
		})
	}
}

func TestAnalyze_CompetitorsOrderedByOccurrence(t *testing.T) {
	text := "Many teams use Initech, though Globex also comes up."

	result := Analyze(text, "Acme Corp", []string{"Globex", "Initech"})

	if assert.Len(t, result.Competitors, 2) {
		assert.Equal(t, "Initech", result.Competitors[0].Name)
		assert.Equal(t, "Globex", result.Competitors[1].Name)
	}
}

func TestAnalyze_DuplicateCompetitorNamesDeduplicated(t *testing.T) {
	text := "Globex is everywhere."

	result := Analyze(text, "Acme Corp", []string{"Globex", "globex", "Globex"})

	assert.Len(t, result.Competitors, 1)
}

func TestAnalyze_SentimentWordBoundaries(t *testing.T) {
	// "goodness" must not count as "good"; "issues" must not count as "issue"
	result := Analyze("Acme Corp handles the goodness of fit tests and tracks issues separately.", "Acme Corp", nil)

	// one negative whole-word hit ("issue" is not matched inside "issues"),
	// zero positive hits
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
}
