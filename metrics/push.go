package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

// DefaultTimeout bounds each remote write request.
const DefaultTimeout = 30 * time.Second

// PushRegistry implements Registry for push-based collection. Every metric
// update is written immediately to a Prometheus remote write endpoint, which
// suits short-lived processes that exit before a scraper would find them.
type PushRegistry struct {
	writer *remoteWriter
}

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint. The standard
	// /api/v1/write path is appended.
	URL string
	// Prefix is prepended to every metric name, separated by an underscore.
	Prefix string
	// Job is the job label attached to every series.
	Job string
	// Instance is the instance label attached to every series.
	Instance string
	// Timeout bounds each write request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewPushRegistry creates a registry that writes to the configured endpoint.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &PushRegistry{writer: &remoteWriter{
		url:      cfg.URL + "/api/v1/write",
		client:   &http.Client{Timeout: timeout},
		prefix:   cfg.Prefix,
		job:      cfg.Job,
		instance: cfg.Instance,
		timeout:  timeout,
	}}
}

// NewGauge creates a push-backed Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushGauge{writer: r.writer, name: opts.Name}, nil
}

// NewGaugeVec creates a push-backed GaugeVec.
func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	return &pushGaugeVec{writer: r.writer, name: opts.Name}, nil
}

// NewCounter creates a push-backed Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return &pushCounter{writer: r.writer, name: opts.Name}, nil
}

// NewCounterVec creates a push-backed CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{writer: r.writer, name: opts.Name}, nil
}

// remoteWriter serializes one sample at a time into the remote write wire
// format: a snappy-compressed protobuf WriteRequest.
type remoteWriter struct {
	url      string
	client   *http.Client
	prefix   string
	job      string
	instance string
	timeout  time.Duration
}

func (w *remoteWriter) write(name string, value float64, labels map[string]string) error {
	req := &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{w.series(name, value, labels)},
	}
	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (w *remoteWriter) series(name string, value float64, labels map[string]string) prompb.TimeSeries {
	metricName := name
	if w.prefix != "" {
		metricName = w.prefix + "_" + name
	}

	promLabels := make([]prompb.Label, 0, len(labels)+3)
	promLabels = append(promLabels, prompb.Label{Name: "__name__", Value: metricName})
	if w.job != "" {
		promLabels = append(promLabels, prompb.Label{Name: "job", Value: w.job})
	}
	if w.instance != "" {
		promLabels = append(promLabels, prompb.Label{Name: "instance", Value: w.instance})
	}
	for k, v := range labels {
		promLabels = append(promLabels, prompb.Label{Name: k, Value: v})
	}

	return prompb.TimeSeries{
		Labels: promLabels,
		Samples: []prompb.Sample{{
			Value:     value,
			Timestamp: time.Now().UnixMilli(),
		}},
	}
}

// pushGauge writes every Set as one sample. Write failures are dropped; a
// missed sample is not worth failing a run over.
type pushGauge struct {
	writer *remoteWriter
	name   string
	labels map[string]string
}

func (g *pushGauge) Set(v float64) {
	_ = g.writer.write(g.name, v, g.labels)
}

type pushGaugeVec struct {
	writer *remoteWriter
	name   string
}

func (g *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{writer: g.writer, name: g.name, labels: labels}
}

// pushCounter keeps the running total locally and writes the new total on
// every increment, so the remote series stays monotonic.
type pushCounter struct {
	mu     sync.Mutex
	writer *remoteWriter
	name   string
	labels map[string]string
	value  float64
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	value := c.value
	c.mu.Unlock()
	_ = c.writer.write(c.name, value, c.labels)
}

// pushCounterVec hands out one pushCounter per label set so totals survive
// repeated With calls.
type pushCounterVec struct {
	mu       sync.Mutex
	writer   *remoteWriter
	name     string
	counters map[string]*pushCounter
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	key := labelKey(labels)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counters == nil {
		c.counters = make(map[string]*pushCounter)
	}
	if counter, ok := c.counters[key]; ok {
		return counter
	}
	counter := &pushCounter{writer: c.writer, name: c.name, labels: labels}
	c.counters[key] = counter
	return counter
}

// labelKey builds a deterministic map key from a label set.
func labelKey(labels prometheus.Labels) string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var key string
	for _, k := range names {
		key += k + "=" + labels[k] + ","
	}
	return key
}
