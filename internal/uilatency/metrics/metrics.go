// Package metrics exports measurement results as Prometheus metrics in the text exposition
// format, for collection by e.g. the node exporter's textfile collector.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/uilatency/internal/uilatency/report"
)

const (
	MetricsPrefix    = "uilatency_"
	ScenarioLabel    = "scenario"
	MeasurementLabel = "measurement"
	KindLabel        = "kind"
)

// Recorder accumulates measurement results. Metrics are kept in a private registry so that
// recorders for different scenarios don't collide.
type Recorder struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	runs      prometheus.Gauge
	// Also written out by WriteTextfile, e.g. prometheus.DefaultGatherer for log line counts.
	extra []prometheus.Gatherer
}

func NewRecorder(scenario string, extra ...prometheus.Gatherer) *Recorder {
	constLabels := prometheus.Labels{ScenarioLabel: scenario}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        MetricsPrefix + "measurement_duration_milliseconds",
				Help:        "Time from trigger until target for successful measurements",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(5, 2, 12),
			},
			[]string{MeasurementLabel},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        MetricsPrefix + "measurement_failures_total",
				Help:        "Number of failed measurements by error kind",
				ConstLabels: constLabels,
			},
			[]string{MeasurementLabel, KindLabel},
		),
		runs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        MetricsPrefix + "runs_completed",
				Help:        "Number of completed runs",
				ConstLabels: constLabels,
			},
		),
		extra: extra,
	}
	r.registry.MustRegister(r.durations, r.failures, r.runs)
	return r
}

// ObserveMeasurement records the outcome of a single measurement.
func (r *Recorder) ObserveMeasurement(_ int, result report.MeasurementResult) {
	if result.OK {
		r.durations.WithLabelValues(result.Name).Observe(result.DurationMs)
		return
	}
	kind := result.ErrorKind
	if kind == "" {
		kind = "unknown"
	}
	r.failures.WithLabelValues(result.Name, kind).Inc()
}

// ObserveRun records the completion of a run.
func (r *Recorder) ObserveRun(run report.RunResult) {
	r.runs.Set(float64(run.RunIndex))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes all recorded metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	gatherers := append(prometheus.Gatherers{r.registry}, r.extra...)
	return errors.WithMessagef(prometheus.WriteToTextfile(path, gatherers), "writing metrics to %s", path)
}
