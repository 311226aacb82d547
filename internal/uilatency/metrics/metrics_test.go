package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/uilatency/report"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder("todo-app")
	msg := "timed out"
	r.ObserveMeasurement(1, report.MeasurementResult{Name: "add_item", OK: true, DurationMs: 12})
	r.ObserveMeasurement(1, report.MeasurementResult{Name: "add_item", OK: true, DurationMs: 40})
	r.ObserveMeasurement(1, report.MeasurementResult{Name: "popup", Error: &msg, ErrorKind: "timeout"})
	r.ObserveMeasurement(2, report.MeasurementResult{Name: "popup", Error: &msg})
	r.ObserveRun(report.RunResult{RunIndex: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("popup", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("popup", "unknown")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs))
	assert.Equal(t, 1, testutil.CollectAndCount(r.durations))

	expected := `
# HELP uilatency_measurement_failures_total Number of failed measurements by error kind
# TYPE uilatency_measurement_failures_total counter
uilatency_measurement_failures_total{kind="timeout",measurement="popup",scenario="todo-app"} 1
uilatency_measurement_failures_total{kind="unknown",measurement="popup",scenario="todo-app"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), MetricsPrefix+"measurement_failures_total"))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder("todo-app")
	r.ObserveMeasurement(1, report.MeasurementResult{Name: "page_ready", OK: true, DurationMs: 120})
	path := filepath.Join(t.TempDir(), "uilatency.prom")

	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `uilatency_measurement_duration_milliseconds_count{measurement="page_ready",scenario="todo-app"} 1`)
	assert.Contains(t, string(b), `uilatency_measurement_duration_milliseconds_sum{measurement="page_ready",scenario="todo-app"} 120`)
}
