package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry implements Registry for scrape-based collection. Metrics
// live in a private Prometheus registry served from the /metrics endpoint.
type ScrapeRegistry struct {
	prom *prometheus.Registry
}

// NewScrapeRegistry creates a registry preloaded with the standard Go and
// process collectors.
func NewScrapeRegistry() (*ScrapeRegistry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}
	return &ScrapeRegistry{prom: reg}, nil
}

// Handler returns the http.Handler that serves the registry.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// NewGauge creates and registers a Gauge.
func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := r.prom.Register(g); err != nil {
		return nil, fmt.Errorf("registering gauge %q: %w", opts.Name, err)
	}
	return &registeredGauge{gauge: g}, nil
}

// NewGaugeVec creates and registers a GaugeVec.
func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	g := prometheus.NewGaugeVec(opts, labels)
	if err := r.prom.Register(g); err != nil {
		return nil, fmt.Errorf("registering gauge vec %q: %w", opts.Name, err)
	}
	return &registeredGaugeVec{vec: g}, nil
}

// NewCounter creates and registers a Counter.
func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	c := prometheus.NewCounter(opts)
	if err := r.prom.Register(c); err != nil {
		return nil, fmt.Errorf("registering counter %q: %w", opts.Name, err)
	}
	return &registeredCounter{counter: c}, nil
}

// NewCounterVec creates and registers a CounterVec.
func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.prom.Register(c); err != nil {
		return nil, fmt.Errorf("registering counter vec %q: %w", opts.Name, err)
	}
	return &registeredCounterVec{vec: c}, nil
}

type registeredGauge struct {
	gauge prometheus.Gauge
}

func (g *registeredGauge) Set(v float64) { g.gauge.Set(v) }

type registeredGaugeVec struct {
	vec *prometheus.GaugeVec
}

func (g *registeredGaugeVec) With(labels prometheus.Labels) Gauge {
	return &registeredGauge{gauge: g.vec.With(labels)}
}

type registeredCounter struct {
	counter prometheus.Counter
}

func (c *registeredCounter) Inc()          { c.counter.Inc() }
func (c *registeredCounter) Add(v float64) { c.counter.Add(v) }

type registeredCounterVec struct {
	vec *prometheus.CounterVec
}

func (c *registeredCounterVec) With(labels prometheus.Labels) Counter {
	return &registeredCounter{counter: c.vec.With(labels)}
}
