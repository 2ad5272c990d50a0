// Package daemon assembles the add-on subsystems into a runnable service.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/apply"
	"github.com/quillhost/addons/internal/catalog"
	"github.com/quillhost/addons/internal/coordinator"
	"github.com/quillhost/addons/internal/feed"
	"github.com/quillhost/addons/internal/infrastructure/config"
	"github.com/quillhost/addons/internal/infrastructure/logging"
	"github.com/quillhost/addons/internal/infrastructure/monitoring"
	"github.com/quillhost/addons/internal/shared/types"
	"github.com/quillhost/addons/internal/tracker"
	"github.com/quillhost/addons/internal/updates"
)

// Daemon owns the wired subsystems and their background loops
type Daemon struct {
	cfg         *config.Config
	logger      *logging.Logger
	hostVersion *semver.Version

	catalog     *catalog.Catalog
	coordinator *coordinator.Coordinator
	aggregator  *updates.Aggregator
	store       *feed.MemoryStore

	metricsServer *http.Server
}

// New wires the daemon from configuration
func New(cfg *config.Config, logger *logging.Logger) (*Daemon, error) {
	hostVersion, err := semver.NewVersion(cfg.Host.Version)
	if err != nil {
		return nil, fmt.Errorf("host version %q: %w", cfg.Host.Version, err)
	}

	metrics := monitoring.NewMetrics()

	client := feed.NewClient(feed.Options{
		BaseURL:                cfg.Feed.BaseURL,
		AuthToken:              cfg.Feed.AuthToken,
		Timeout:                cfg.Feed.Timeout,
		DownloadBytesPerSecond: cfg.Feed.DownloadBytesPerSecond,
	})

	var source catalog.Feed = client
	if cfg.Feed.SeedDir != "" {
		seeder := feed.NewSeeder(cfg.Feed.SeedDir, logger.Logger)
		source = feed.NewFallbackFeed(client, seeder, logger.Logger)
	}

	cat := catalog.New(source, logger.Logger).WithMetrics(metrics)
	store := feed.NewMemoryStore()

	// The System universe carries a single record: the host application
	// itself. Updates for it pair against this seed.
	store.Publish(types.InstalledPackageRecord{
		Identity: types.PackageIdentity{Name: cfg.Host.Name, Target: types.TargetSystem(cfg.Host.Target)},
		Universe: types.UniverseSystem,
		Version:  hostVersion,
	})

	applier := apply.NewDiskApplier(cfg.Host.InstallDir, logger.Logger)
	coord := coordinator.New(cat, tracker.New(), client, applier, store, logger.Logger).WithMetrics(metrics)
	agg := updates.New(cat, store, client, logger.Logger).WithMetrics(metrics)

	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		hostVersion: hostVersion,
		catalog:     cat,
		coordinator: coord,
		aggregator:  agg,
		store:       store,
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		d.metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	}

	return d, nil
}

// Coordinator exposes the installation coordinator
func (d *Daemon) Coordinator() *coordinator.Coordinator { return d.coordinator }

// Aggregator exposes the update aggregator
func (d *Daemon) Aggregator() *updates.Aggregator { return d.aggregator }

// Catalog exposes the version catalog
func (d *Daemon) Catalog() *catalog.Catalog { return d.catalog }

// Run performs the initial catalog refresh and blocks on the periodic
// refresh loop until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.metricsServer != nil {
		go func() {
			d.logger.Info("metrics endpoint up", zap.String("addr", d.metricsServer.Addr))
			if err := d.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				d.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if _, err := d.catalog.Refresh(ctx, d.hostVersion); err != nil {
		// A dead feed at startup is survivable; the loop keeps trying
		d.logger.Warn("initial catalog refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(d.cfg.Catalog.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.catalog.Refresh(ctx, d.hostVersion); err != nil {
				d.logger.Warn("catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// Close shuts down the daemon's servers
func (d *Daemon) Close() error {
	if d.metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.metricsServer.Shutdown(ctx)
}
