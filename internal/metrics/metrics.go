// Package metrics records run metrics on a private Prometheus registry and
// writes them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AndreyAkinshin/stochval/internal/tests"
)

const namespace = "stochval"

// Recorder implements runner.Observer.
type Recorder struct {
	registry    *prometheus.Registry
	verdicts    *prometheus.CounterVec
	invocations *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	lastRun     prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Comparison case verdicts by status.",
		}, []string{"status"}),
		invocations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of target engine and reference validator invocations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"collaborator"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocation_failures_total",
			Help:      "Invocations that returned an error, including timeouts.",
		}, []string{"collaborator"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished.",
		}),
	}
	r.registry.MustRegister(r.verdicts, r.invocations, r.failures, r.lastRun)

	for _, s := range []tests.Status{tests.StatusPass, tests.StatusFail, tests.StatusError, tests.StatusSkip} {
		r.verdicts.WithLabelValues(string(s))
	}
	return r
}

// ObserveVerdict counts v by status.
func (r *Recorder) ObserveVerdict(v tests.Verdict) {
	r.verdicts.WithLabelValues(string(v.Status)).Inc()
}

// ObserveInvocation records one external invocation.
func (r *Recorder) ObserveInvocation(collaborator string, d time.Duration, err error) {
	r.invocations.WithLabelValues(collaborator).Observe(d.Seconds())
	if err != nil {
		r.failures.WithLabelValues(collaborator).Inc()
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile stamps the run end time and writes all metrics to path.
func (r *Recorder) WriteTextfile(path string, finished time.Time) error {
	r.lastRun.Set(float64(finished.Unix()))
	return prometheus.WriteToTextfile(path, r.registry)
}
