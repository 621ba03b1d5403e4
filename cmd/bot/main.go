package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/geolens/visibility-bot/internal/notifications"
	"github.com/geolens/visibility-bot/internal/prompts"
	"github.com/geolens/visibility-bot/internal/providers"
	"github.com/geolens/visibility-bot/internal/scan"
	"github.com/geolens/visibility-bot/internal/scheduler"
	"github.com/geolens/visibility-bot/internal/storage"
	"github.com/geolens/visibility-bot/internal/tracking"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting Visibility Bot for brand %s", cfg.Brand)

	// Metrics repository: Azure blob when configured, in-memory otherwise
	var repository storage.MetricsRepository
	if cfg.StorageAccount != "" {
		blobRepo, err := storage.NewBlobRepository(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		repository = blobRepo
	} else {
		logrus.Warn("No storage account configured, metrics will not survive restarts")
		repository = storage.NewMemoryRepository()
	}

	notificationService := notifications.NewService(cfg)
	registry := providers.NewRegistry(cfg)
	orchestrator := scan.NewOrchestrator(cfg, registry)
	trackingService := tracking.NewService(cfg, orchestrator, repository, notificationService)

	schedulerService := scheduler.NewService(cfg, trackingService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// HTTP surface for health checks, metrics and manual scans
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(trackingService)).Methods("GET")
	router.HandleFunc("/scan", scanHandler(trackingService)).Methods("POST")
	router.HandleFunc("/prompts", generatePromptsHandler(cfg, registry)).Methods("POST")
	router.HandleFunc("/trigger", triggerHandler(trackingService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := trackingService.GetMetricsJSON(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	}
}

type scanRequest struct {
	Brand       string          `json:"brand"`
	BrandID     string          `json:"brand_id,omitempty"`
	Competitors []string        `json:"competitors,omitempty"`
	Prompts     []models.Prompt `json:"prompts"`
	Providers   []string        `json:"providers,omitempty"`
}

type scanResponse struct {
	Outcome  *models.ScanOutcome      `json:"outcome"`
	Metrics  models.VisibilityMetrics `json:"metrics"`
	GeoScore int                      `json:"geo_score"`
}

// scanHandler runs a synchronous scan for the requested brand and merges
// the results into its stored metrics.
func scanHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		outcome, err := trackingService.RunScan(r.Context(), req.Brand, req.Competitors, req.Prompts, req.Providers)
		if err != nil {
			var invalid *scan.InvalidInputError
			if errors.As(err, &invalid) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			var allFailed *scan.AllProvidersFailedError
			if errors.As(err, &allFailed) {
				writeError(w, http.StatusBadGateway, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		brandID := req.BrandID
		if brandID == "" {
			brandID = req.Brand
		}

		metrics, err := trackingService.RecordScan(r.Context(), brandID, outcome.AnalyzedResponses)
		if err != nil {
			// The scan succeeded; return the computed metrics alongside the
			// persistence failure so the caller can retry the save.
			logrus.Errorf("Failed to persist scan results: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   err.Error(),
				"outcome": outcome,
				"metrics": metrics,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(scanResponse{
			Outcome:  outcome,
			Metrics:  metrics,
			GeoScore: metrics.DisplayGeoScore(),
		})
	}
}

type promptsRequest struct {
	Industry string `json:"industry"`
}

// generatePromptsHandler asks the fallback provider for industry search
// queries. Callers typically feed the result straight into /scan.
func generatePromptsHandler(cfg *config.Config, registry *providers.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promptsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if req.Industry == "" {
			req.Industry = cfg.Industry
		}
		if req.Industry == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("industry is required"))
			return
		}

		provider, ok := registry.Get(cfg.FallbackProvider)
		if !ok || !provider.IsEnabled() {
			writeError(w, http.StatusServiceUnavailable, fmt.Errorf("no provider available for prompt generation"))
			return
		}

		generated, err := prompts.NewGenerator(provider).GenerateIndustryPrompts(r.Context(), req.Industry)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"industry": req.Industry,
			"prompts":  generated,
		})
	}
}

func triggerHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := trackingService.RunScheduledScan(ctx); err != nil {
				logrus.Errorf("Manual scan trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Scan triggered successfully"}`))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
