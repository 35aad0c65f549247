// Package metrics records scan pipeline counters for prometheus.
//
// ally is a short-lived CLI, so metrics are not served over HTTP. They are
// written once per run in text exposition format for the node_exporter
// textfile collector. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ally_targets_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns a private registry with the ally collectors.
type Recorder struct {
	registry *prometheus.Registry

	targetsTotal   *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	retriesTotal   prometheus.Counter
	launchesTotal  *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	violationsLast *prometheus.GaugeVec
	scoreLast      prometheus.Gauge
}

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		targetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ally_targets_total",
				Help: "Total number of scanned targets by outcome",
			},
			[]string{"kind", "outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ally_cache_lookups_total",
				Help: "Result cache lookups by result",
			},
			[]string{"result"},
		),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ally_retries_total",
			Help: "Total number of retried scan attempts",
		}),
		launchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ally_backend_launches_total",
				Help: "Browser backend launches by backend",
			},
			[]string{"backend"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ally_target_scan_duration_seconds",
				Help:    "Duration of a single target scan in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		violationsLast: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ally_violations",
				Help: "Violations found by the last run, by severity",
			},
			[]string{"severity"},
		),
		scoreLast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ally_score",
			Help: "Accessibility score of the last run (0-100)",
		}),
	}

	r.registry.MustRegister(
		r.targetsTotal,
		r.cacheLookups,
		r.retriesTotal,
		r.launchesTotal,
		r.scanDuration,
		r.violationsLast,
		r.scoreLast,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// TargetScanned records one finished target.
func (r *Recorder) TargetScanned(kind, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.targetsTotal.WithLabelValues(kind, outcome).Inc()
	r.scanDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// CacheHit records a cache hit.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache miss.
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// Retry records one retried attempt.
func (r *Recorder) Retry() {
	if r == nil {
		return
	}
	r.retriesTotal.Inc()
}

// BackendLaunched records a backend launch.
func (r *Recorder) BackendLaunched(backend string) {
	if r == nil {
		return
	}
	r.launchesTotal.WithLabelValues(backend).Inc()
}

// RunSummary sets the last-run gauges.
func (r *Recorder) RunSummary(score int, bySeverity map[string]int) {
	if r == nil {
		return
	}
	r.scoreLast.Set(float64(score))
	for severity, n := range bySeverity {
		r.violationsLast.WithLabelValues(severity).Set(float64(n))
	}
}
