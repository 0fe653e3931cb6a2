package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	MetricsAddr string

	// S3 Storage (report archive and workspace logos)
	S3 S3Config

	// Engine and workers
	FinanceDefaultsFile   string
	Finance               FinanceDefaults
	RenewalWorkerInterval time.Duration
	RenewalNoticeDays     int
	AddonCycleGating      bool
	ReportRateLimit       int
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether object storage has been configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9091"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		FinanceDefaultsFile: getEnv("FINANCE_DEFAULTS_FILE", ""),
	}

	var err error
	if cfg.RenewalWorkerInterval, err = time.ParseDuration(getEnv("RENEWAL_WORKER_INTERVAL", "1h")); err != nil {
		return nil, fmt.Errorf("RENEWAL_WORKER_INTERVAL: %w", err)
	}
	if cfg.RenewalNoticeDays, err = strconv.Atoi(getEnv("RENEWAL_NOTICE_DAYS", "30")); err != nil {
		return nil, fmt.Errorf("RENEWAL_NOTICE_DAYS: %w", err)
	}
	if cfg.AddonCycleGating, err = strconv.ParseBool(getEnv("ADDON_CYCLE_GATING", "false")); err != nil {
		return nil, fmt.Errorf("ADDON_CYCLE_GATING: %w", err)
	}
	if cfg.ReportRateLimit, err = strconv.Atoi(getEnv("REPORT_RATE_LIMIT", "10")); err != nil {
		return nil, fmt.Errorf("REPORT_RATE_LIMIT: %w", err)
	}

	finance, err := LoadFinanceDefaults(cfg.FinanceDefaultsFile)
	if err != nil {
		return nil, err
	}
	cfg.Finance = *finance

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.RenewalWorkerInterval <= 0 {
		return fmt.Errorf("RENEWAL_WORKER_INTERVAL must be positive")
	}
	if c.RenewalNoticeDays < 0 {
		return fmt.Errorf("RENEWAL_NOTICE_DAYS must not be negative")
	}
	if c.ReportRateLimit <= 0 {
		return fmt.Errorf("REPORT_RATE_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
