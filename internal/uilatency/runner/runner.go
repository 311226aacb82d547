// Package runner executes the measurements of a scenario repeatedly against one document.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/common/util"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
	"github.com/armadaproject/uilatency/internal/uilatency/executor"
	"github.com/armadaproject/uilatency/internal/uilatency/report"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
	"github.com/armadaproject/uilatency/internal/uilatency/stats"
)

// Observer is notified of results as they are produced.
type Observer interface {
	ObserveMeasurement(runIndex int, result report.MeasurementResult)
	ObserveRun(run report.RunResult)
}

type Runner struct {
	scenario  *scenario.Scenario
	executor  *executor.Executor
	clock     util.Clock
	observers []Observer
}

// New returns a Runner for s. doc is owned by the caller and must not be used elsewhere
// while the Runner is running.
func New(s *scenario.Scenario, doc document.Document, clock util.Clock, observers ...Observer) *Runner {
	return &Runner{
		scenario:  s,
		executor:  executor.New(doc, clock, s.URL),
		clock:     clock,
		observers: observers,
	}
}

// Run performs every run of the scenario in sequence and aggregates the results.
// Failed measurements don't stop the run. If ctx is cancelled, the report covers the runs
// completed so far and the context error is returned alongside it; the interrupted run
// is discarded.
func (r *Runner) Run(ctx context.Context) (*report.SummaryReport, error) {
	runs := make([]report.RunResult, 0, r.scenario.Runs)
	for i := 1; i <= r.scenario.Runs; i++ {
		run := r.RunOnce(ctx, i)
		if err := ctx.Err(); err != nil {
			return report.Build(r.scenario, runs), errors.WithMessagef(err, "stopped after %d of %d runs", len(runs), r.scenario.Runs)
		}
		runs = append(runs, run)
		logging.Infof("run %d/%d :: %s", i, r.scenario.Runs, formatRun(run))
		for _, o := range r.observers {
			o.ObserveRun(run)
		}
	}
	return report.Build(r.scenario, runs), nil
}

// RunOnce performs every measurement of the scenario once, in order.
// It stops as soon as ctx is cancelled; the measurement in flight at that point is not recorded.
func (r *Runner) RunOnce(ctx context.Context, runIndex int) report.RunResult {
	run := report.RunResult{RunIndex: runIndex}
	for _, m := range r.scenario.Measurements {
		if ctx.Err() != nil {
			break
		}
		result := r.measure(ctx, m)
		if ctx.Err() != nil {
			break
		}
		run.Measurements = append(run.Measurements, result)
		for _, o := range r.observers {
			o.ObserveMeasurement(runIndex, result)
		}
	}
	return run
}

func (r *Runner) measure(ctx context.Context, m scenario.Measurement) report.MeasurementResult {
	result := report.MeasurementResult{Name: m.Name}

	// Baselines are captured outside the timed window.
	baselines, err := r.executor.Prepare(ctx, m.Target)

	t0 := r.clock.Now()
	if err == nil {
		err = r.executor.Trigger(ctx, m.Trigger, r.scenario.Timeout)
	}
	if err == nil {
		result.Detail, err = r.executor.Target(ctx, m.Target, r.scenario.Budget(m), baselines)
	}
	result.DurationMs = stats.Round(util.Milliseconds(r.clock.Now().Sub(t0)))

	if err != nil {
		msg := err.Error()
		result.Error = &msg
		result.ErrorKind = latencyerrors.Kind(err)
		logging.
			WithError(err).
			WithField("measurement", m.Name).
			WithField("kind", result.ErrorKind).
			Debug("measurement failed")
		return result
	}
	result.OK = true
	return result
}

func formatRun(run report.RunResult) string {
	parts := make([]string, len(run.Measurements))
	for i, m := range run.Measurements {
		if m.OK {
			parts[i] = fmt.Sprintf("%s=%.1fms", m.Name, m.DurationMs)
		} else {
			parts[i] = fmt.Sprintf("%s=ERR(%s)", m.Name, firstLine(*m.Error))
		}
	}
	return strings.Join(parts, " | ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
