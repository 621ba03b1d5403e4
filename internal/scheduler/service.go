package scheduler

import (
	"context"
	"time"

	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/tracking"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service schedules recurring visibility scans
type Service struct {
	config          *config.Config
	trackingService *tracking.Service
	cron            *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, trackingService *tracking.Service) *Service {
	return &Service{
		config:          cfg,
		trackingService: trackingService,
		cron:            cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled scans
func (s *Service) Start() error {
	var cronExpression string

	switch s.config.ScanSchedule {
	case "daily":
		// Run daily at 9 AM UTC
		cronExpression = "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		cronExpression = "0 0 9 * * MON"
	default:
		cronExpression = "0 0 9 * * *"
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled scan run")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := s.trackingService.RunScheduledScan(ctx); err != nil {
			logrus.Errorf("Scheduled scan run failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s scan schedule", s.config.ScanSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
