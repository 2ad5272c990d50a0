package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the add-on core
type Metrics struct {
	// Installation metrics
	InstallsStarted  prometheus.Counter
	InstallsFinished *prometheus.CounterVec // outcome: completed|cancelled|failed
	InstallsRejected *prometheus.CounterVec // reason: not_found|conflict
	InstallsActive   prometheus.Gauge
	InstallDuration  prometheus.Histogram
	BytesFetched     prometheus.Counter

	// Catalog metrics
	CatalogRefreshes *prometheus.CounterVec // result: ok|error
	CatalogPackages  prometheus.Gauge

	// Update check metrics
	UpdateChecks  *prometheus.CounterVec // universe
	UpdatesListed prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		InstallsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "addons_installs_started_total",
				Help: "Total number of installation operations started",
			},
		),
		InstallsFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addons_installs_finished_total",
				Help: "Total number of installation operations by terminal state",
			},
			[]string{"outcome"},
		),
		InstallsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addons_installs_rejected_total",
				Help: "Total number of install requests rejected before registration",
			},
			[]string{"reason"},
		),
		InstallsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "addons_installs_active",
				Help: "Number of installation operations currently pending or running",
			},
		),
		InstallDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "addons_install_duration_seconds",
				Help:    "Installation duration from registration to terminal state",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		BytesFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "addons_fetched_bytes_total",
				Help: "Total payload bytes downloaded",
			},
		),

		CatalogRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addons_catalog_refreshes_total",
				Help: "Total number of catalog refresh attempts",
			},
			[]string{"result"},
		),
		CatalogPackages: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "addons_catalog_packages",
				Help: "Number of packages in the current catalog snapshot",
			},
		),

		UpdateChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addons_update_checks_total",
				Help: "Total number of update checks by universe",
			},
			[]string{"universe"},
		),
		UpdatesListed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "addons_updates_pending",
				Help: "Number of pending updates found by the last check",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "addons_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordInstallStart records a registered installation
func (m *Metrics) RecordInstallStart() {
	m.InstallsStarted.Inc()
	m.InstallsActive.Inc()
}

// RecordInstallFinish records a terminal transition
func (m *Metrics) RecordInstallFinish(outcome string, duration time.Duration) {
	m.InstallsFinished.WithLabelValues(outcome).Inc()
	m.InstallsActive.Dec()
	m.InstallDuration.Observe(duration.Seconds())
}

// RecordInstallRejected records a synchronous rejection
func (m *Metrics) RecordInstallRejected(reason string) {
	m.InstallsRejected.WithLabelValues(reason).Inc()
}
