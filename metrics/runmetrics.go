package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"formprobe/runner"
)

// RunMetrics publishes run outcomes through a Registry. It satisfies the
// runner's observer interface, so execution code stays unaware of whether
// metrics are scraped or pushed.
type RunMetrics struct {
	runs     CounterVec
	fields   CounterVec
	duration Gauge
	evidence Counter
}

// NewRunMetrics registers the run metric set with the given registry. The
// namespace prefixes metric names in scrape mode; push registries apply
// their own configured prefix instead, so push callers pass "".
func NewRunMetrics(reg Registry, namespace string) (*RunMetrics, error) {
	runs, err := reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Finished runs by terminal status.",
	}, []string{"status"})
	if err != nil {
		return nil, err
	}

	fields, err := reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fields_total",
		Help:      "Field probes by outcome.",
	}, []string{"outcome"})
	if err != nil {
		return nil, err
	}

	duration, err := reg.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the most recently finished run.",
	})
	if err != nil {
		return nil, err
	}

	evidence, err := reg.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_bytes_total",
		Help:      "Screenshot bytes written to the evidence directory.",
	})
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runs:     runs,
		fields:   fields,
		duration: duration,
		evidence: evidence,
	}, nil
}

// RunFinished records a run reaching a terminal status.
func (m *RunMetrics) RunFinished(status runner.Status, duration time.Duration) {
	m.runs.With(prometheus.Labels{"status": string(status)}).Inc()
	m.duration.Set(duration.Seconds())
}

// FieldTested records a single field probe outcome.
func (m *RunMetrics) FieldTested(success bool) {
	outcome := "failed"
	if success {
		outcome = "passed"
	}
	m.fields.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// EvidenceCaptured records screenshot bytes written.
func (m *RunMetrics) EvidenceCaptured(bytes int64) {
	m.evidence.Add(float64(bytes))
}
