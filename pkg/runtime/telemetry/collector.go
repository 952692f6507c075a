// Package telemetry collects operational metrics per service: append-only
// sample series for counters, gauges, and histograms, plus a derived
// performance summary fed by response-time recordings. Series grow until the
// caller resets them; an optional Observer mirrors every sample into an
// external backend such as Prometheus.
package telemetry

import (
	"sync"
	"time"
)

// Kind classifies a metric series.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
)

// Sample is one recorded value.
type Sample struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Series is the ordered samples of one (service, metric) pair.
type Series struct {
	Kind    Kind     `json:"kind"`
	Samples []Sample `json:"samples"`
}

// Summary aggregates the response-time recordings of one service. The
// average is over successful request durations, in milliseconds.
type Summary struct {
	TotalRequests       int64   `json:"total_requests"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	FailedRequests      int64   `json:"failed_requests"`
	AverageResponseTime float64 `json:"average_response_time_ms"`
}

// Observer mirrors recorded samples into an external metrics backend.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveCounter(service, metric string, delta float64)
	ObserveGauge(service, metric string, value float64)
	ObserveHistogram(service, metric string, value float64)
}

type perf struct {
	total     int64
	succeeded int64
	failed    int64
	// successDurationsMs backs the derived average.
	successDurationsMs float64
}

type serviceState struct {
	enabled bool
	series  map[string]*Series
	perf    perf
}

// Collector owns all metric series. Safe for concurrent use; per-service
// collection can be switched off without losing recorded history.
type Collector struct {
	mu       sync.RWMutex
	services map[string]*serviceState
	observer Observer
	now      func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithObserver mirrors every recorded sample into o.
func WithObserver(o Observer) Option {
	return func(c *Collector) { c.observer = o }
}

// withClock fixes the sample clock, for tests.
func withClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates an empty collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		services: make(map[string]*serviceState),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure switches collection on or off for a service. Previously recorded
// series are kept either way.
func (c *Collector) Configure(service string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateLocked(service).enabled = enabled
}

// RecordCounter appends a counter increment to the named series.
func (c *Collector) RecordCounter(service, metric string, delta float64) {
	if c.record(service, metric, KindCounter, delta) && c.observer != nil {
		c.observer.ObserveCounter(service, metric, delta)
	}
}

// RecordGauge appends a gauge value to the named series.
func (c *Collector) RecordGauge(service, metric string, value float64) {
	if c.record(service, metric, KindGauge, value) && c.observer != nil {
		c.observer.ObserveGauge(service, metric, value)
	}
}

// RecordHistogram appends an observation to the named series.
func (c *Collector) RecordHistogram(service, metric string, value float64) {
	if c.record(service, metric, KindHistogram, value) && c.observer != nil {
		c.observer.ObserveHistogram(service, metric, value)
	}
}

// RecordResponseTime feeds the operation's duration histogram and the
// service's success/failure counters backing Performance.
func (c *Collector) RecordResponseTime(service, operation string, duration time.Duration, success bool) {
	ms := float64(duration) / float64(time.Millisecond)
	c.RecordHistogram(service, operation+"_duration_ms", ms)

	outcome := "requests_failed_total"
	if success {
		outcome = "requests_succeeded_total"
	}
	c.RecordCounter(service, outcome, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.stateLocked(service)
	if !state.enabled {
		return
	}
	state.perf.total++
	if success {
		state.perf.succeeded++
		state.perf.successDurationsMs += ms
	} else {
		state.perf.failed++
	}
}

// ServiceMetrics returns a copy of the raw per-metric sample series.
func (c *Collector) ServiceMetrics(service string) map[string]Series {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.services[service]
	if !ok {
		return map[string]Series{}
	}
	out := make(map[string]Series, len(state.series))
	for name, s := range state.series {
		out[name] = Series{Kind: s.Kind, Samples: append([]Sample(nil), s.Samples...)}
	}
	return out
}

// Performance derives the service's request summary from its response-time
// recordings.
func (c *Collector) Performance(service string) Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.services[service]
	if !ok {
		return Summary{}
	}
	summary := Summary{
		TotalRequests:      state.perf.total,
		SuccessfulRequests: state.perf.succeeded,
		FailedRequests:     state.perf.failed,
	}
	if state.perf.succeeded > 0 {
		summary.AverageResponseTime = state.perf.successDurationsMs / float64(state.perf.succeeded)
	}
	return summary
}

// Reset discards all series and performance state for a service, keeping its
// enabled flag.
func (c *Collector) Reset(service string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.services[service]; ok {
		state.series = make(map[string]*Series)
		state.perf = perf{}
	}
}

// record appends a sample and reports whether the service had collection
// enabled.
func (c *Collector) record(service, metric string, kind Kind, value float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.stateLocked(service)
	if !state.enabled {
		return false
	}
	s, ok := state.series[metric]
	if !ok {
		s = &Series{Kind: kind}
		state.series[metric] = s
	}
	s.Samples = append(s.Samples, Sample{At: c.now(), Value: value})
	return true
}

// stateLocked returns the service's state, creating it enabled by default.
// Callers must hold the write lock.
func (c *Collector) stateLocked(service string) *serviceState {
	state, ok := c.services[service]
	if !ok {
		state = &serviceState{enabled: true, series: make(map[string]*Series)}
		c.services[service] = state
	}
	return state
}
