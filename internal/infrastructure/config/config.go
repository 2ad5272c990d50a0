package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Host    HostConfig
	Feed    FeedConfig
	Catalog CatalogConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// HostConfig describes the host application this daemon manages add-ons for.
type HostConfig struct {
	Name       string `envconfig:"HOST_NAME" default:"QuillHost"`
	Version    string `envconfig:"HOST_VERSION" default:"1.0.0"`
	Target     string `envconfig:"HOST_TARGET" default:"desktop"`
	InstallDir string `envconfig:"ADDONS_DIR" default:"/var/lib/quillhost/addons"`
}

// FeedConfig holds descriptor feed connection configuration.
type FeedConfig struct {
	BaseURL                string        `envconfig:"FEED_URL" default:"https://feed.quillhost.io"`
	AuthToken              string        `envconfig:"FEED_TOKEN" default:""`
	Timeout                time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`
	DownloadBytesPerSecond float64       `envconfig:"FEED_DOWNLOAD_BPS" default:"0"`
	SeedDir                string        `envconfig:"FEED_SEED_DIR" default:""`
}

// CatalogConfig holds catalog refresh configuration.
type CatalogConfig struct {
	RefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"15m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	Addr    string `envconfig:"METRICS_ADDR" default:"localhost:9114"`
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Host: HostConfig{
			Name:       "QuillHost",
			Version:    "1.0.0",
			Target:     "desktop",
			InstallDir: "/var/lib/quillhost/addons",
		},
		Feed: FeedConfig{
			BaseURL: "https://feed.quillhost.io",
			Timeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			RefreshInterval: 15 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Addr:    "localhost:9114",
			Enabled: true,
		},
	}
}
