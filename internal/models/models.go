package models

import (
	"math"
	"time"
)

// Sentiment classification for a single analyzed response.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Prompt is a market-research query to run against the AI models.
// Intent and Volume are optional tags carried over from prompt generation.
type Prompt struct {
	Query  string `json:"query"`
	Intent string `json:"intent,omitempty"` // "Discovery", "High Intent"
	Volume string `json:"volume,omitempty"` // "Low", "High", "Very High"
}

// RawAnswer is one provider's answer to a single prompt, before analysis.
type RawAnswer struct {
	Provider string `json:"provider"`
	Text     string `json:"text"`
}

// CompetitorMention records one competitor found in a response, with its
// list position. Position is 1-based; 0 means mentioned but unranked.
type CompetitorMention struct {
	Name     string `json:"name"`
	Position int    `json:"position,omitempty"`
}

// AnalyzedResponse is the durable unit of scan history: one provider's
// answer to one prompt plus everything the analyzer extracted from it.
// Never mutated after creation.
type AnalyzedResponse struct {
	ID                   string              `json:"id"`
	Prompt               string              `json:"prompt"`
	Provider             string              `json:"provider"`
	ResponseText         string              `json:"response_text"`
	BrandMentioned       bool                `json:"brand_mentioned"`
	BrandPosition        int                 `json:"brand_position,omitempty"` // 1-based, 0 = unranked
	CompetitorsMentioned []CompetitorMention `json:"competitors_mentioned"`
	Sentiment            string              `json:"sentiment"`
	MarketPosition       string              `json:"market_position,omitempty"` // "Market Leader", "Mentioned Brand", ...
	Timestamp            time.Time           `json:"timestamp"`
}

// CompetitorNames returns just the names, in mention order.
func (r AnalyzedResponse) CompetitorNames() []string {
	names := make([]string, 0, len(r.CompetitorsMentioned))
	for _, c := range r.CompetitorsMentioned {
		names = append(names, c.Name)
	}
	return names
}

// DailyMetric is the per-calendar-day rollup, keyed by UTC date.
type DailyMetric struct {
	Date                  string  `json:"date"` // "2006-01-02", UTC
	BrandMentionRate      float64 `json:"brand_mention_rate"`
	CompetitorMentionRate float64 `json:"competitor_mention_rate"`
	OverallPresence       float64 `json:"overall_presence"`
}

// VisibilityMetrics is the cumulative visibility state for one tracked
// brand. All derived fields are recomputed from History on every merge;
// they are never set independently of it.
type VisibilityMetrics struct {
	GeoScore           float64                `json:"geo_score"`
	BrandMentions      int                    `json:"brand_mentions"`
	CompetitorMentions int                    `json:"competitor_mentions"`
	OverallPresence    float64                `json:"overall_presence"`
	AverageSentiment   float64                `json:"average_sentiment"`
	History            []AnalyzedResponse     `json:"history"`
	DailyMetrics       map[string]DailyMetric `json:"daily_metrics"`
	ModelsMonitored    int                    `json:"models_monitored"`
	TopModel           string                 `json:"top_model,omitempty"`
	CompetitorScores   map[string]int         `json:"competitor_scores,omitempty"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// DisplayGeoScore is the GEO score rounded for display. The full-precision
// value stays in GeoScore.
func (m VisibilityMetrics) DisplayGeoScore() int {
	return int(math.Round(m.GeoScore))
}

// ScanOutcome is the uniform result of one scan: every per-provider answer
// that was analyzed, plus the providers that failed to answer.
type ScanOutcome struct {
	Brand             string             `json:"brand"`
	AnalyzedResponses []AnalyzedResponse `json:"analyzed_responses"`
	Failures          []string           `json:"failures"`
	Summary           string             `json:"summary,omitempty"`
	StartedAt         time.Time          `json:"started_at"`
	Duration          string             `json:"duration,omitempty"`
}

// Report is the periodic visibility report sent after a scheduled scan.
type Report struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Brand        string                 `json:"brand"`
	Period       string                 `json:"period"` // "daily" or "weekly"
	TotalScanned int                    `json:"total_scanned"`
	GeoScore     int                    `json:"geo_score"`
	Failures     []string               `json:"failures,omitempty"`
	Summary      map[string]interface{} `json:"summary"`
}
