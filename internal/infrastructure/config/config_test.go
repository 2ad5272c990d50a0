package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Host config
	assert.Equal(t, "QuillHost", cfg.Host.Name)
	assert.Equal(t, "1.0.0", cfg.Host.Version)

	// Feed config
	assert.Equal(t, "https://feed.quillhost.io", cfg.Feed.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Feed.Timeout)
	assert.Empty(t, cfg.Feed.AuthToken)

	// Catalog config
	assert.Equal(t, 15*time.Minute, cfg.Catalog.RefreshInterval)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Metrics config
	assert.Equal(t, "localhost:9114", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"HOST_NAME":                "Inkwell",
		"HOST_VERSION":             "2.4.0",
		"HOST_TARGET":              "server",
		"FEED_URL":                 "https://feed.example.com",
		"FEED_TOKEN":               "secret",
		"FEED_TIMEOUT":             "10s",
		"FEED_DOWNLOAD_BPS":        "524288",
		"CATALOG_REFRESH_INTERVAL": "5m",
		"LOG_LEVEL":                "debug",
		"LOG_DEV":                  "true",
		"METRICS_ENABLED":          "false",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Inkwell", cfg.Host.Name)
	assert.Equal(t, "2.4.0", cfg.Host.Version)
	assert.Equal(t, "server", cfg.Host.Target)

	assert.Equal(t, "https://feed.example.com", cfg.Feed.BaseURL)
	assert.Equal(t, "secret", cfg.Feed.AuthToken)
	assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, float64(524288), cfg.Feed.DownloadBytesPerSecond)

	assert.Equal(t, 5*time.Minute, cfg.Catalog.RefreshInterval)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("HOST_VERSION", "3.0.0")
	require.NoError(t, err)
	defer os.Unsetenv("HOST_VERSION")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3.0.0", cfg.Host.Version)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "QuillHost", cfg.Host.Name)
	assert.Equal(t, "https://feed.quillhost.io", cfg.Feed.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Catalog.RefreshInterval)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	err := os.Setenv("FEED_TIMEOUT", "soon")
	require.NoError(t, err)
	defer os.Unsetenv("FEED_TIMEOUT")

	_, err = Load()
	assert.Error(t, err)
}
