// Package metrics provides Prometheus-compatible metrics behind a small
// registry abstraction with two implementations:
//
//   - ScrapeRegistry (server): metrics are registered once and exposed on
//     the /metrics endpoint for scraping.
//   - PushRegistry (CLI): every update is written to a remote write
//     endpoint, so one-shot runs report before the process exits.
//
// RunMetrics layers the form-probing metric set on top of either one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a value that can go up and down.
type Gauge interface {
	Set(float64)
}

// Counter is a monotonically increasing value.
type Counter interface {
	Inc()
	// Add panics if the value is negative.
	Add(float64)
}

// GaugeVec is a Gauge partitioned by labels.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter partitioned by labels.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics, hiding the difference between
// scrape and push collection.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
