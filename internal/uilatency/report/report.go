// Package report aggregates run results into a summary report and writes it out.
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/uilatency/executor"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
	"github.com/armadaproject/uilatency/internal/uilatency/stats"
)

// MeasurementResult is the outcome of one measurement in one run.
type MeasurementResult struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Wall-clock time from just before the trigger until the target was reached or failed,
	// rounded to 2 decimal places.
	DurationMs float64 `json:"duration_ms"`
	// Nil if OK.
	Error  *string          `json:"error"`
	Detail *executor.Detail `json:"detail,omitempty"`
	// Classification of the error, see latencyerrors.Kind.
	ErrorKind string `json:"-"`
}

type RunResult struct {
	// One-based.
	RunIndex     int                 `json:"run_index"`
	Measurements []MeasurementResult `json:"measurements"`
}

type SummaryReport struct {
	Scenario  string `json:"scenario"`
	URL       string `json:"url"`
	Runs      int    `json:"runs"`
	TimeoutMs int64  `json:"timeout_ms"`
	Headed    bool   `json:"headed"`
	// Only measurements that succeeded at least once appear here.
	Stats map[string]stats.Summary `json:"stats"`
	// Only measurements that failed at least once appear here.
	Errors map[string]int `json:"errors"`
	Raw    []RunResult    `json:"raw"`
}

// Build aggregates runs into a SummaryReport for s.
func Build(s *scenario.Scenario, runs []RunResult) *SummaryReport {
	durations := make(map[string][]float64)
	failures := make(map[string]int)
	for _, run := range runs {
		for _, m := range run.Measurements {
			if m.OK {
				durations[m.Name] = append(durations[m.Name], m.DurationMs)
			} else {
				failures[m.Name]++
			}
		}
	}
	summaries := make(map[string]stats.Summary, len(durations))
	for name, ds := range durations {
		summaries[name] = stats.Summarize(ds)
	}
	if runs == nil {
		runs = []RunResult{}
	}
	return &SummaryReport{
		Scenario:  s.Name,
		URL:       s.URL,
		Runs:      s.Runs,
		TimeoutMs: s.Timeout.Milliseconds(),
		Headed:    s.Headed,
		Stats:     summaries,
		Errors:    failures,
		Raw:       runs,
	}
}

// WriteJSON writes r as indented JSON.
func (r *SummaryReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.WithStack(enc.Encode(r))
}

// WriteToFile writes r as JSON to path, creating parent directories as needed.
func WriteToFile(r *SummaryReport, path string) error {
	return writeFile(path, r.WriteJSON)
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WithStack(err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

// Names returns the measurement names in r in the order they first appear in the raw results.
func (r *SummaryReport) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, run := range r.Raw {
		for _, m := range run.Measurements {
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
		}
	}
	return names
}
