package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/jstemmer/go-junit-report/v2/junit"
	"github.com/pkg/errors"
)

// JUnit converts r into JUnit test suites: one suite per scenario, one test case per
// measurement per run. Failed measurements become failures typed by their error kind.
func (r *SummaryReport) JUnit() junit.Testsuites {
	suite := junit.Testsuite{
		Name: r.Scenario,
		Time: "0",
	}
	suite.AddProperty("url", r.URL)
	suite.AddProperty("timeout_ms", strconv.FormatInt(r.TimeoutMs, 10))
	var total float64
	for _, run := range r.Raw {
		for _, m := range run.Measurements {
			total += m.DurationMs
			tc := junit.Testcase{
				Name:      fmt.Sprintf("%s/run-%d", m.Name, run.RunIndex),
				Classname: r.Scenario,
				Time:      seconds(m.DurationMs),
			}
			if !m.OK {
				msg := ""
				if m.Error != nil {
					msg = *m.Error
				}
				tc.Failure = &junit.Result{Message: msg, Type: m.ErrorKind, Data: msg}
			}
			suite.AddTestcase(tc)
		}
	}
	suite.Time = seconds(total)
	var suites junit.Testsuites
	suites.AddSuite(suite)
	return suites
}

// WriteJUnit writes r as JUnit XML.
func (r *SummaryReport) WriteJUnit(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.WithStack(err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(r.JUnit()); err != nil {
		return errors.WithStack(err)
	}
	_, err := io.WriteString(w, "\n")
	return errors.WithStack(err)
}

// WriteJUnitToFile writes r as JUnit XML to path.
func WriteJUnitToFile(r *SummaryReport, path string) error {
	return writeFile(path, r.WriteJUnit)
}

func seconds(ms float64) string {
	return strconv.FormatFloat(ms/1000, 'f', 3, 64)
}
