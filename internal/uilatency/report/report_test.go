package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/uilatency/executor"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

var testScenario = &scenario.Scenario{
	Name:    "todo-app",
	URL:     "http://localhost:8080/?a=1&b=<2>",
	Runs:    3,
	Timeout: 5 * time.Second,
}

func ok(name string, ms float64) MeasurementResult {
	return MeasurementResult{Name: name, OK: true, DurationMs: ms}
}

func failed(name string, ms float64, msg string) MeasurementResult {
	return MeasurementResult{Name: name, DurationMs: ms, Error: &msg, ErrorKind: "timeout"}
}

func testRuns() []RunResult {
	return []RunResult{
		{RunIndex: 1, Measurements: []MeasurementResult{failed("m1", 5000, "boom"), ok("m2", 10)}},
		{RunIndex: 2, Measurements: []MeasurementResult{failed("m1", 5000, "boom"), ok("m2", 20)}},
		{RunIndex: 3, Measurements: []MeasurementResult{failed("m1", 5000, "boom"), ok("m2", 30)}},
	}
}

func TestBuild(t *testing.T) {
	r := Build(testScenario, testRuns())

	assert.Equal(t, "todo-app", r.Scenario)
	assert.Equal(t, 3, r.Runs)
	assert.Equal(t, int64(5000), r.TimeoutMs)
	assert.Equal(t, map[string]int{"m1": 3}, r.Errors)
	require.Contains(t, r.Stats, "m2")
	assert.NotContains(t, r.Stats, "m1")
	assert.Equal(t, 3, r.Stats["m2"].Count)
	assert.Equal(t, 20.0, *r.Stats["m2"].Mean)
	assert.Equal(t, []string{"m1", "m2"}, r.Names())
}

func TestBuild_NoRuns(t *testing.T) {
	r := Build(testScenario, nil)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, map[string]interface{}{}, decoded["stats"])
	assert.Equal(t, map[string]interface{}{}, decoded["errors"])
	assert.Equal(t, []interface{}{}, decoded["raw"])
}

func TestWriteJSON(t *testing.T) {
	runs := testRuns()
	runs[0].Measurements[1].Detail = &executor.Detail{
		WinnerIndex: 1,
		Winner:      &scenario.Instruction{Type: "wait_visible", Selector: "#error"},
	}
	r := Build(testScenario, runs)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	out := buf.String()

	assert.Contains(t, out, "\n  \"scenario\": \"todo-app\"")
	assert.Contains(t, out, `"url": "http://localhost:8080/?a=1&b=<2>"`)
	assert.Contains(t, out, `"error": null`)
	assert.Contains(t, out, `"error": "boom"`)
	assert.Contains(t, out, `"winner_index": 1`)
	assert.NotContains(t, out, "ErrorKind")
	assert.Equal(t, 1, strings.Count(out, `"detail"`))

	var decoded SummaryReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.Errors, decoded.Errors)
	assert.Equal(t, *r.Stats["m2"].P95, *decoded.Stats["m2"].P95)
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, WriteToFile(Build(testScenario, testRuns()), path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Build(testScenario, testRuns()).Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "Scenario todo-app")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^m1\s+0\s+-\s+-\s+-\s+-\s+-\s+3$`, lines[2])
	assert.Regexp(t, `^m2\s+3\s+20\.00ms\s+20\.00ms\s+29\.00ms\s+10\.00ms\s+30\.00ms\s+0$`, lines[3])
}

func TestWriteJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(testScenario, testRuns()).WriteJUnit(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xml.Header+"<testsuites"), out)
	assert.Contains(t, out, "\n\t<testsuite ")
	assert.Contains(t, out, `<testsuite name="todo-app"`)
	assert.Equal(t, 6, strings.Count(out, "<testcase "))
	assert.Equal(t, 3, strings.Count(out, "<failure "))
	assert.Contains(t, out, `name="m2/run-3"`)
	assert.Contains(t, out, `type="timeout"`)
	assert.Contains(t, out, `time="0.030"`)
}
