// Package scan runs visibility scans: it fans a prompt out to every active
// AI provider, collects whichever answers arrive, and hands the settled
// batch to the mention analyzer. Network I/O ends before analysis begins.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geolens/visibility-bot/internal/analysis"
	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/geolens/visibility-bot/internal/providers"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Orchestrator coordinates concurrent provider queries for a scan request.
type Orchestrator struct {
	config   *config.Config
	registry *providers.Registry
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(cfg *config.Config, registry *providers.Registry) *Orchestrator {
	return &Orchestrator{
		config:   cfg,
		registry: registry,
	}
}

type attempt struct {
	answer *models.RawAnswer
	err    *ProviderError
}

// RunScan queries every requested provider for each prompt, analyzes the
// answers that arrived, and reports per-provider failures alongside them.
// An empty providerNames list means every active provider. The returned
// outcome carries failures even when the scan as a whole fails; the error
// is non-nil only when not a single response could be obtained.
func (o *Orchestrator) RunScan(ctx context.Context, brand string, competitors []string, prompts []models.Prompt, providerNames []string) (*models.ScanOutcome, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, &InvalidInputError{Field: "brand"}
	}
	if len(prompts) == 0 {
		return nil, &InvalidInputError{Field: "prompts"}
	}
	for _, p := range prompts {
		if strings.TrimSpace(p.Query) == "" {
			return nil, &InvalidInputError{Field: "prompt query"}
		}
	}

	active := o.registry.Select(providerNames)
	if len(active) == 0 {
		return nil, &AllProvidersFailedError{Failures: providerNames}
	}

	start := time.Now()
	logrus.Infof("Starting visibility scan for %s across %d providers, %d prompts", brand, len(active), len(prompts))

	outcome := &models.ScanOutcome{
		Brand:     brand,
		StartedAt: start,
		Failures:  []string{},
	}

	for i, prompt := range prompts {
		// Deliberate pause between prompts to respect upstream rate limits
		if i > 0 && o.config.PromptPause > 0 {
			time.Sleep(o.config.PromptPause)
		}

		answers, failures := o.scanPrompt(ctx, active, prompt.Query)
		outcome.Failures = append(outcome.Failures, failures...)

		for _, answer := range answers {
			verdict := analysis.Analyze(answer.Text, brand, competitors)
			outcome.AnalyzedResponses = append(outcome.AnalyzedResponses, models.AnalyzedResponse{
				ID:                   uuid.NewString(),
				Prompt:               prompt.Query,
				Provider:             answer.Provider,
				ResponseText:         answer.Text,
				BrandMentioned:       verdict.BrandMentioned,
				BrandPosition:        verdict.BrandPosition,
				CompetitorsMentioned: verdict.Competitors,
				Sentiment:            verdict.Sentiment,
				MarketPosition:       verdict.MarketPosition,
				Timestamp:            time.Now().UTC(),
			})
		}
	}

	outcome.Duration = time.Since(start).String()

	if len(outcome.AnalyzedResponses) == 0 {
		logrus.Errorf("Visibility scan for %s produced no responses from any provider", brand)
		return outcome, &AllProvidersFailedError{Failures: outcome.Failures}
	}

	outcome.Summary = summarize(brand, outcome.AnalyzedResponses)
	logrus.Infof("Visibility scan for %s completed in %v: %d responses, %d failures",
		brand, time.Since(start), len(outcome.AnalyzedResponses), len(outcome.Failures))

	return outcome, nil
}

// scanPrompt dispatches one prompt to every provider concurrently, each
// under its own timeout, and waits for all of them to settle. Answers come
// back in dispatch order regardless of network timing. If every provider
// fails, the designated fallback provider gets one synchronous retry under
// a fresh timeout.
func (o *Orchestrator) scanPrompt(ctx context.Context, active []providers.Provider, prompt string) ([]models.RawAnswer, []string) {
	logrus.Debugf("Dispatching prompt to %d providers", len(active))

	attempts := make([]attempt, len(active))
	done := make(chan int, len(active))

	for i, provider := range active {
		go func(slot int, p providers.Provider) {
			attempts[slot] = o.query(ctx, p, prompt)
			done <- slot
		}(i, provider)
	}

	// Collect every dispatched call before moving on; a multi-model
	// comparison must not short-circuit on first success.
	for range active {
		<-done
	}

	var answers []models.RawAnswer
	var failures []string
	for _, a := range attempts {
		if a.err != nil {
			logrus.Errorf("Provider call failed: %v", a.err)
			failures = append(failures, a.err.Provider)
			continue
		}
		answers = append(answers, *a.answer)
	}

	if len(answers) > 0 {
		return answers, failures
	}

	// Every concurrent attempt failed; retry the fallback provider once.
	fallback, ok := o.registry.Get(o.config.FallbackProvider)
	if !ok || !fallback.IsEnabled() {
		return nil, failures
	}

	logrus.Warnf("All %d providers failed, retrying fallback provider %s", len(active), fallback.Name())
	retry := o.query(ctx, fallback, prompt)
	if retry.err != nil {
		logrus.Errorf("Fallback provider failed: %v", retry.err)
		failures = append(failures, fallback.Name())
		return nil, failures
	}

	return []models.RawAnswer{*retry.answer}, failures
}

func (o *Orchestrator) query(ctx context.Context, p providers.Provider, prompt string) attempt {
	callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	text, err := p.Query(callCtx, prompt)
	if err != nil {
		return attempt{err: &ProviderError{Provider: p.Name(), Err: err}}
	}
	if strings.TrimSpace(text) == "" {
		return attempt{err: &ProviderError{Provider: p.Name(), Err: fmt.Errorf("empty response")}}
	}

	return attempt{answer: &models.RawAnswer{Provider: p.Name(), Text: text}}
}

// summarize builds the one-line result summary carried on the outcome.
func summarize(brand string, responses []models.AnalyzedResponse) string {
	total := len(responses)
	mentioned := 0
	modelSet := make(map[string]bool)
	for _, r := range responses {
		if r.BrandMentioned {
			mentioned++
			modelSet[r.Provider] = true
		}
	}

	if mentioned == 0 {
		return fmt.Sprintf("%s was not mentioned in any of the %d model responses for this scan.", brand, total)
	}

	var mentionedModels []string
	for _, r := range responses {
		if r.BrandMentioned && modelSet[r.Provider] {
			mentionedModels = append(mentionedModels, r.Provider)
			delete(modelSet, r.Provider)
		}
	}

	if mentioned == total {
		return fmt.Sprintf("%s was mentioned in all %d model responses: %s.", brand, total, strings.Join(mentionedModels, ", "))
	}

	percentage := int(float64(mentioned) / float64(total) * 100)
	return fmt.Sprintf("%s was mentioned in %d of %d model responses (%d%%): %s.",
		brand, mentioned, total, percentage, strings.Join(mentionedModels, ", "))
}
