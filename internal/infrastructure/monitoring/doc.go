/*
Package monitoring provides Prometheus metrics for the add-on core.

# Overview

This package tracks installation outcomes, in-flight operations, catalog
refreshes, and update checks. Metrics register through promauto on the
default registry; the embedding process decides how to expose them.

# Usage

	metrics := monitoring.NewMetrics()

	metrics.RecordInstallStart()
	// ... run the operation ...
	metrics.RecordInstallFinish("completed", time.Since(start))

# Metrics Endpoint

Expose metrics via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	http.Handle("/metrics", promhttp.Handler())
*/
package monitoring
