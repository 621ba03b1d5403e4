// Package tracking owns the read-merge-save cycle for a brand's visibility
// metrics and drives the scheduled scans.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/metrics"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/geolens/visibility-bot/internal/notifications"
	"github.com/geolens/visibility-bot/internal/scan"
	"github.com/geolens/visibility-bot/internal/storage"
	"github.com/sirupsen/logrus"
)

// Service runs scans and folds their results into persisted metrics.
type Service struct {
	config              *config.Config
	orchestrator        *scan.Orchestrator
	repository          storage.MetricsRepository
	notificationService notifications.NotificationInterface

	mu     sync.Mutex
	brands map[string]*sync.Mutex
}

// NewService creates a new tracking service
func NewService(cfg *config.Config, orchestrator *scan.Orchestrator, repository storage.MetricsRepository, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		orchestrator:        orchestrator,
		repository:          repository,
		notificationService: notificationService,
		brands:              make(map[string]*sync.Mutex),
	}
}

// MergeMetrics folds a batch of analyzed responses into existing metrics.
// Pure passthrough to the aggregator; exposed so callers holding their own
// metrics state can merge without touching the repository.
func (s *Service) MergeMetrics(existing models.VisibilityMetrics, newResponses []models.AnalyzedResponse) models.VisibilityMetrics {
	return metrics.Merge(existing, newResponses)
}

// RunScan fans the prompts out across the requested providers and returns
// the analyzed outcome without touching stored metrics.
func (s *Service) RunScan(ctx context.Context, brand string, competitors []string, prompts []models.Prompt, providerNames []string) (*models.ScanOutcome, error) {
	return s.orchestrator.RunScan(ctx, brand, competitors, prompts, providerNames)
}

// RecordScan merges new responses into the brand's stored metrics under
// the brand's lock. Two scans for the same brand serialize here; scans for
// different brands proceed independently. On a save failure the updated
// metrics are still returned so the caller can retry the save without
// re-running the scan.
func (s *Service) RecordScan(ctx context.Context, brandID string, newResponses []models.AnalyzedResponse) (models.VisibilityMetrics, error) {
	lock := s.brandLock(brandID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repository.Load(ctx, brandID)
	if err != nil {
		return models.VisibilityMetrics{}, err
	}

	updated := metrics.Merge(existing, newResponses)

	if err := s.repository.Save(ctx, brandID, updated); err != nil {
		return updated, err
	}

	logrus.Infof("Merged %d responses into metrics for brand %s (history now %d, GEO score %d)",
		len(newResponses), brandID, len(updated.History), updated.DisplayGeoScore())
	return updated, nil
}

// RunScheduledScan performs a full scan-and-merge for the configured brand
// and sends the visibility report. This is the scheduler's and the manual
// trigger's entry point.
func (s *Service) RunScheduledScan(ctx context.Context) error {
	start := time.Now()
	logrus.Infof("Starting scheduled visibility scan for %s", s.config.Brand)

	prompts := s.configuredPrompts()
	if len(prompts) == 0 {
		return fmt.Errorf("no prompts configured for scheduled scan")
	}

	outcome, err := s.orchestrator.RunScan(ctx, s.config.Brand, s.config.Competitors, prompts, nil)
	if err != nil {
		// A dead scan merges nothing; zero responses must never be
		// recorded as zero mentions.
		return fmt.Errorf("scheduled scan failed: %w", err)
	}

	updated, err := s.RecordScan(ctx, s.config.BrandID, outcome.AnalyzedResponses)
	if err != nil {
		return err
	}

	if err := s.sendReport(outcome, updated); err != nil {
		logrus.Errorf("Failed to send visibility report: %v", err)
		return err
	}

	logrus.Infof("Scheduled scan completed in %v", time.Since(start))
	return nil
}

// GetMetricsJSON returns the configured brand's stored metrics as JSON.
func (s *Service) GetMetricsJSON(ctx context.Context) (string, error) {
	m, err := s.repository.Load(ctx, s.config.BrandID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Service) configuredPrompts() []models.Prompt {
	prompts := make([]models.Prompt, 0, len(s.config.Prompts))
	for _, query := range s.config.Prompts {
		if query == "" {
			continue
		}
		prompts = append(prompts, models.Prompt{Query: EnhancePromptWithIndustry(query, s.config.Industry)})
	}
	return prompts
}

func (s *Service) sendReport(outcome *models.ScanOutcome, m models.VisibilityMetrics) error {
	if s.notificationService == nil {
		return nil
	}
	return s.notificationService.SendReport(BuildReport(s.config, outcome, m))
}

func (s *Service) brandLock(brandID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.brands[brandID]
	if !ok {
		lock = &sync.Mutex{}
		s.brands[brandID] = lock
	}
	return lock
}

// EnhancePromptWithIndustry scopes a generic query to the brand's industry.
func EnhancePromptWithIndustry(prompt, industry string) string {
	if industry == "" {
		return prompt
	}
	return fmt.Sprintf("%s from %s industry", prompt, industry)
}

// BuildReport assembles the periodic visibility report from a scan outcome
// and the merged metrics it produced.
func BuildReport(cfg *config.Config, outcome *models.ScanOutcome, m models.VisibilityMetrics) *models.Report {
	return &models.Report{
		GeneratedAt:  time.Now(),
		Brand:        cfg.Brand,
		Period:       cfg.ScanSchedule,
		TotalScanned: len(outcome.AnalyzedResponses),
		GeoScore:     m.DisplayGeoScore(),
		Failures:     outcome.Failures,
		Summary: map[string]interface{}{
			"scan_summary":        outcome.Summary,
			"brand_mentions":      m.BrandMentions,
			"competitor_mentions": m.CompetitorMentions,
			"overall_presence":    m.OverallPresence,
			"average_sentiment":   m.AverageSentiment,
			"models_monitored":    m.ModelsMonitored,
			"top_model":           m.TopModel,
			"competitor_scores":   m.CompetitorScores,
			"history_size":        len(m.History),
		},
	}
}
