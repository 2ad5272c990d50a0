// Package config provides 12-factor configuration management for the
// add-ons daemon.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Host: identity of the managed host application (name, version, target)
//   - Feed: descriptor feed connection settings and seed directory
//   - Catalog: refresh cadence
//   - Logging: log level and output format
//   - Metrics: Prometheus endpoint settings
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Feed at %s\n", cfg.Feed.BaseURL)
//
// Environment Variables:
//   - HOST_NAME, HOST_VERSION, HOST_TARGET, ADDONS_DIR
//   - FEED_URL, FEED_TOKEN, FEED_TIMEOUT, FEED_DOWNLOAD_BPS, FEED_SEED_DIR
//   - CATALOG_REFRESH_INTERVAL
//   - LOG_LEVEL, LOG_DEV
//   - METRICS_ADDR, METRICS_ENABLED
package config
