package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ScanSchedule string // "daily" or "weekly"
	TimeZone     string

	// Tracked brand
	Brand       string
	BrandID     string
	Competitors []string
	Industry    string
	Prompts     []string

	// Provider configuration
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GoogleAPIKey     string
	FallbackProvider string
	ProviderTimeout  time.Duration
	PromptPause      time.Duration
	MaxTokens        int

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Debug:        getBoolEnv("DEBUG", false),
		ScanSchedule: getEnv("SCAN_SCHEDULE", "daily"),
		TimeZone:     getEnv("TIMEZONE", "UTC"),

		Brand:       getEnv("BRAND_NAME", ""),
		BrandID:     getEnv("BRAND_ID", ""),
		Competitors: getSliceEnv("COMPETITORS", nil),
		Industry:    getEnv("INDUSTRY", ""),
		Prompts:     getSliceEnv("PROMPTS", nil),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		FallbackProvider: getEnv("FALLBACK_PROVIDER", "ChatGPT"),
		ProviderTimeout:  getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
		PromptPause:      getDurationEnv("PROMPT_PAUSE", 2*time.Second),
		MaxTokens:        getIntEnv("MAX_TOKENS", 1000),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "visibility"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if cfg.BrandID == "" && cfg.Brand != "" {
		cfg.BrandID = slugify(cfg.Brand)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScanSchedule != "daily" && c.ScanSchedule != "weekly" {
		return fmt.Errorf("SCAN_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.Brand == "" {
		return fmt.Errorf("BRAND_NAME is required")
	}

	switch c.FallbackProvider {
	case "ChatGPT", "Claude", "Gemini":
	default:
		return fmt.Errorf("FALLBACK_PROVIDER must be one of ChatGPT, Claude, Gemini")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
