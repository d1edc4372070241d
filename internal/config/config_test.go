package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		JWTSecret:              "test-secret",
		Port:                   "8461",
		DBPassword:             "password",
		DBSSLMode:              "disable",
		Env:                    "development",
		AutoApproveThreshold:   0.2,
		RequireReviewThreshold: 0.5,
		AutoRejectThreshold:    0.8,
		MaxScanFileSizeBytes:   10 * 1024 * 1024,
	}
}

func TestValidate_Development(t *testing.T) {
	cfg := baseConfig()
	require.NoError(t, cfg.Validate())

	t.Run("missing port", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Port = ""
		assert.ErrorContains(t, cfg.Validate(), "PORT")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := baseConfig()
		cfg.JWTSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	})

	t.Run("non-positive scan size cap", func(t *testing.T) {
		cfg := baseConfig()
		cfg.MaxScanFileSizeBytes = 0
		assert.ErrorContains(t, cfg.Validate(), "MAX_SCAN_FILE_SIZE_BYTES")
	})

	t.Run("default secret tolerated outside production", func(t *testing.T) {
		cfg := baseConfig()
		cfg.JWTSecret = "your-secret-key-change-in-production"
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidate_Production(t *testing.T) {
	productionConfig := func() *Config {
		cfg := baseConfig()
		cfg.Env = "production"
		cfg.JWTSecret = strings.Repeat("s", 32)
		cfg.DBPassword = "an-actual-password"
		cfg.DBSSLMode = "require"
		return cfg
	}

	require.NoError(t, productionConfig().Validate())

	t.Run("default jwt secret rejected", func(t *testing.T) {
		cfg := productionConfig()
		cfg.JWTSecret = "your-secret-key-change-in-production"
		assert.ErrorContains(t, cfg.Validate(), "default value")
	})

	t.Run("short jwt secret rejected", func(t *testing.T) {
		cfg := productionConfig()
		cfg.JWTSecret = "short"
		assert.ErrorContains(t, cfg.Validate(), "at least 32 characters")
	})

	t.Run("weak db password rejected", func(t *testing.T) {
		for _, pw := range []string{"password", ""} {
			cfg := productionConfig()
			cfg.DBPassword = pw
			assert.ErrorContains(t, cfg.Validate(), "DB_PASSWORD")
		}
	})

	t.Run("prod alias enforced too", func(t *testing.T) {
		cfg := productionConfig()
		cfg.Env = "prod"
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})
}

func TestValidateThresholds(t *testing.T) {
	cases := []struct {
		name                              string
		autoApprove, requireReview, reject float64
		wantErr                           bool
	}{
		{"defaults", 0.2, 0.5, 0.8, false},
		{"all equal", 0.5, 0.5, 0.5, false},
		{"boundaries", 0, 0.5, 1, false},
		{"approve above review", 0.6, 0.5, 0.8, true},
		{"review above reject", 0.2, 0.9, 0.8, true},
		{"negative", -0.1, 0.5, 0.8, true},
		{"above one", 0.2, 0.5, 1.1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateThresholds(tc.autoApprove, tc.requireReview, tc.reject)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
