package uilatency

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/common/util"
	"github.com/armadaproject/uilatency/internal/uilatency/browser"
	"github.com/armadaproject/uilatency/internal/uilatency/build"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
	"github.com/armadaproject/uilatency/internal/uilatency/metrics"
	"github.com/armadaproject/uilatency/internal/uilatency/report"
	"github.com/armadaproject/uilatency/internal/uilatency/runner"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

// OpenDocumentFunc opens the document a scenario runs against.
// The returned function releases it.
type OpenDocumentFunc func(ctx context.Context, s *scenario.Scenario) (document.Document, func() error, error)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// Defaults to launching Chrome. Tests substitute a fake document.
	OpenDocument OpenDocumentFunc
	Clock        util.Clock
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// through UILATENCY_* environment variables.
type Params struct {
	// Scenario file to run.
	ScenarioPath string
	// Where to write the JSON report.
	OutputPath string
	// If set, a JUnit XML report is written here too.
	JUnitPath string
	// If set, Prometheus metrics are written here in the textfile collector format.
	MetricsPath string
	Overrides   scenario.Overrides
}

// New instantiates an App with default parameters, including standard output
// and a real browser.
func New() *App {
	return &App{
		Params:       &Params{},
		Out:          os.Stdout,
		OpenDocument: openBrowser,
		Clock:        &util.DefaultClock{},
	}
}

func openBrowser(ctx context.Context, s *scenario.Scenario) (document.Document, func() error, error) {
	b, err := browser.Launch(ctx, s.Headed)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

func (a *App) validateParams(needOutput bool) error {
	if a.Params.ScenarioPath == "" {
		return errors.WithStack(&latencyerrors.ErrInvalidArgument{
			Name:    "config",
			Value:   a.Params.ScenarioPath,
			Message: "not provided",
		})
	}
	if needOutput && a.Params.OutputPath == "" {
		return errors.WithStack(&latencyerrors.ErrInvalidArgument{
			Name:    "out",
			Value:   a.Params.OutputPath,
			Message: "not provided",
		})
	}
	return nil
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Validate loads the scenario and prints what it would measure, without opening a document.
func (a *App) Validate() error {
	if err := a.validateParams(false); err != nil {
		return err
	}
	s, err := scenario.Load(a.Params.ScenarioPath, a.Params.Overrides)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Scenario %q is valid: %d measurement(s), %d run(s) against %s\n", s.Name, len(s.Measurements), s.Runs, s.URL)
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "MEASUREMENT\tTRIGGER\tTARGET\tTIMEOUT")
	for _, m := range s.Measurements {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Trigger.Type(), m.Target.Type(), s.Budget(m))
	}
	return nil
}

// Run loads the scenario, runs it against a freshly opened document, and writes the reports.
// Failed measurements are recorded in the report and are not errors; configuration problems,
// failing to open the document, and failing to write reports are.
func (a *App) Run(ctx context.Context) error {
	if err := a.validateParams(true); err != nil {
		return err
	}
	s, err := scenario.Load(a.Params.ScenarioPath, a.Params.Overrides)
	if err != nil {
		return err
	}
	logging.
		WithField("scenario", s.Name).
		WithField("url", s.URL).
		Infof("running %d measurement(s) %d time(s)", len(s.Measurements), s.Runs)

	doc, closeDocument, err := a.OpenDocument(ctx, s)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDocument(); err != nil {
			logging.WithError(err).Warn("error closing document")
		}
	}()

	var observers []runner.Observer
	var recorder *metrics.Recorder
	if a.Params.MetricsPath != "" {
		recorder = metrics.NewRecorder(s.Name, prometheus.DefaultGatherer)
		observers = append(observers, recorder)
	}

	summary, runErr := runner.New(s, doc, a.Clock, observers...).Run(ctx)
	if summary == nil {
		return runErr
	}
	if err := report.WriteToFile(summary, a.Params.OutputPath); err != nil {
		return err
	}
	logging.Infof("wrote report to %s", a.Params.OutputPath)
	if a.Params.JUnitPath != "" {
		if err := report.WriteJUnitToFile(summary, a.Params.JUnitPath); err != nil {
			return err
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(a.Params.MetricsPath); err != nil {
			return err
		}
	}
	summary.Print(a.Out)
	return runErr
}
