// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`

	// Screening thresholds. The bands must be ordered:
	// auto-approve <= require-review <= auto-reject.
	AutoApproveThreshold   float64 `mapstructure:"AUTO_APPROVE_THRESHOLD"`
	RequireReviewThreshold float64 `mapstructure:"REQUIRE_REVIEW_THRESHOLD"`
	AutoRejectThreshold    float64 `mapstructure:"AUTO_REJECT_THRESHOLD"`

	// External analysis collaborators.
	ImageAnalysisURL     string `mapstructure:"IMAGE_ANALYSIS_URL"`
	AnalysisTimeoutSecs  int    `mapstructure:"ANALYSIS_TIMEOUT_SECS"`
	ClamAVHost           string `mapstructure:"CLAMAV_HOST"`
	ClamAVPort           int    `mapstructure:"CLAMAV_PORT"`
	MaxScanFileSizeBytes int64  `mapstructure:"MAX_SCAN_FILE_SIZE_BYTES"`

	// Maintenance sweeps (driven by the scheduler).
	CleanupOlderThanDays int `mapstructure:"CLEANUP_OLDER_THAN_DAYS"`
	SweepIntervalSecs    int `mapstructure:"SWEEP_INTERVAL_SECS"`

	// Tracing.
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	// Development bootstrap: appoint a global moderator on startup so a
	// fresh database is immediately usable.
	DevBootstrapModerator bool   `mapstructure:"DEV_BOOTSTRAP_MODERATOR"`
	DevModeratorUserID    string `mapstructure:"DEV_MODERATOR_USER_ID"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err == nil {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8461")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "moderation")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("AUTO_APPROVE_THRESHOLD", 0.2)
	viper.SetDefault("REQUIRE_REVIEW_THRESHOLD", 0.5)
	viper.SetDefault("AUTO_REJECT_THRESHOLD", 0.8)
	viper.SetDefault("IMAGE_ANALYSIS_URL", "")
	viper.SetDefault("ANALYSIS_TIMEOUT_SECS", 10)
	viper.SetDefault("CLAMAV_HOST", "clamav")
	viper.SetDefault("CLAMAV_PORT", 3310)
	viper.SetDefault("MAX_SCAN_FILE_SIZE_BYTES", 10*1024*1024)
	viper.SetDefault("CLEANUP_OLDER_THAN_DAYS", 30)
	viper.SetDefault("SWEEP_INTERVAL_SECS", 300)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 0.1)
	viper.SetDefault("DEV_BOOTSTRAP_MODERATOR", false)
	viper.SetDefault("DEV_MODERATOR_USER_ID", "")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if err := ValidateThresholds(c.AutoApproveThreshold, c.RequireReviewThreshold, c.AutoRejectThreshold); err != nil {
		return err
	}

	if c.MaxScanFileSizeBytes <= 0 {
		return errors.New("MAX_SCAN_FILE_SIZE_BYTES must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	}

	return nil
}

// ValidateThresholds enforces the verdict band ordering so the four bands
// (approved / flagged / pending_review / rejected) cannot overlap.
func ValidateThresholds(autoApprove, requireReview, autoReject float64) error {
	for name, v := range map[string]float64{
		"AUTO_APPROVE_THRESHOLD":   autoApprove,
		"REQUIRE_REVIEW_THRESHOLD": requireReview,
		"AUTO_REJECT_THRESHOLD":    autoReject,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if autoApprove > requireReview || requireReview > autoReject {
		return fmt.Errorf(
			"screening thresholds must be ordered auto-approve (%v) <= require-review (%v) <= auto-reject (%v)",
			autoApprove, requireReview, autoReject,
		)
	}
	return nil
}
