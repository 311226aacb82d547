package runner

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/common/util"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
	"github.com/armadaproject/uilatency/internal/uilatency/document/documenttest"
	"github.com/armadaproject/uilatency/internal/uilatency/report"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingObserver struct {
	measurements []report.MeasurementResult
	runs         []int
}

func (o *recordingObserver) ObserveMeasurement(_ int, result report.MeasurementResult) {
	o.measurements = append(o.measurements, result)
}

func (o *recordingObserver) ObserveRun(run report.RunResult) {
	o.runs = append(o.runs, run.RunIndex)
}

func captureLogs(t *testing.T) *test.Hook {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.InfoLevel)
	previous := logging.StdLogger()
	logging.ReplaceStdLogger(logging.FromLogrus(l))
	t.Cleanup(func() { logging.ReplaceStdLogger(previous) })
	return hook
}

func TestRun_FailingTriggerDoesNotStopTheRun(t *testing.T) {
	hook := captureLogs(t)
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	page.SetElement("#x", documenttest.Always())

	s := &scenario.Scenario{
		Name:    "e2e",
		URL:     "http://localhost:8080/",
		Runs:    3,
		Timeout: 200 * time.Millisecond,
		Measurements: []scenario.Measurement{
			{
				Name:    "m1",
				Trigger: &scenario.ClickTrigger{Selector: "#gone"},
				Target:  &scenario.WaitForStateTarget{Selector: "#x", State: document.StateVisible},
			},
			{
				Name:    "m2",
				Trigger: &scenario.SleepTrigger{Duration: 10 * time.Millisecond},
				Target:  &scenario.WaitForStateTarget{Selector: "#x", State: document.StateVisible},
			},
		},
	}
	observer := &recordingObserver{}

	r, err := New(s, page, clock, observer).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"m1": 3}, r.Errors)
	assert.NotContains(t, r.Stats, "m1")
	require.Contains(t, r.Stats, "m2")
	assert.Equal(t, 3, r.Stats["m2"].Count)
	assert.Equal(t, 10.0, *r.Stats["m2"].Mean)
	require.Len(t, r.Raw, 3)
	for i, run := range r.Raw {
		assert.Equal(t, i+1, run.RunIndex)
		require.Len(t, run.Measurements, 2)
		m1 := run.Measurements[0]
		assert.False(t, m1.OK)
		assert.Equal(t, "element_resolution", m1.ErrorKind)
		assert.Equal(t, 200.0, m1.DurationMs)
		require.NotNil(t, m1.Error)
		assert.Contains(t, *m1.Error, "#gone")
		assert.True(t, run.Measurements[1].OK)
		assert.Nil(t, run.Measurements[1].Error)
	}

	assert.Len(t, observer.measurements, 6)
	assert.Equal(t, []int{1, 2, 3}, observer.runs)

	require.Len(t, hook.AllEntries(), 3)
	assert.Regexp(t, `^run 1/3 :: m1=ERR\(.*#gone.*\) \| m2=10\.0ms$`, hook.AllEntries()[0].Message)
}

func TestRun_TargetOverrideBudget(t *testing.T) {
	captureLogs(t)
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	page.SetElement("#late", documenttest.ShownFrom(time.Hour))
	target := &scenario.WaitForStateTarget{Selector: "#late", State: document.StateVisible}
	target.Override = 50 * time.Millisecond
	s := &scenario.Scenario{
		Runs:    1,
		Timeout: time.Second,
		Measurements: []scenario.Measurement{
			{Name: "m", Trigger: &scenario.SleepTrigger{}, Target: target},
		},
	}

	r, err := New(s, page, clock).Run(context.Background())
	require.NoError(t, err)
	m := r.Raw[0].Measurements[0]
	assert.Equal(t, "timeout", m.ErrorKind)
	assert.Equal(t, 50.0, m.DurationMs)
}

func TestRunOnce_BaselineCapturedBeforeTrigger(t *testing.T) {
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	page.SetElement("#add", documenttest.Always())
	items := 2
	page.SetCount("li", func(time.Duration) int { return items })
	page.OnAction("click:#add", func(p *documenttest.Page) { items++ })
	s := &scenario.Scenario{
		Timeout: time.Second,
		Measurements: []scenario.Measurement{
			{
				Name:    "add_item",
				Trigger: &scenario.ClickTrigger{Selector: "#add"},
				Target:  &scenario.WaitCountIncreaseTarget{Selector: "li", PollInterval: 50 * time.Millisecond},
			},
		},
	}

	run := New(s, page, clock).RunOnce(context.Background(), 1)
	require.Len(t, run.Measurements, 1)
	assert.True(t, run.Measurements[0].OK)
	assert.Equal(t, 0.0, run.Measurements[0].DurationMs)
}

func TestRun_Cancelled(t *testing.T) {
	captureLogs(t)
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	s := &scenario.Scenario{
		Runs:    5,
		Timeout: time.Second,
		Measurements: []scenario.Measurement{
			{Name: "m", Trigger: &scenario.SleepTrigger{}, Target: &scenario.SleepTarget{Duration: time.Millisecond}},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := New(s, page, clock).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)
	assert.Empty(t, r.Raw)
	assert.Equal(t, 5, r.Runs)
}

func TestRun_CancelledMidRun(t *testing.T) {
	hook := captureLogs(t)
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	page.SetElement("#a", documenttest.Always())
	page.SetElement("#x", documenttest.Always())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	page.OnAction("click:#a", func(*documenttest.Page) { cancel() })

	measurement := func(name string) scenario.Measurement {
		return scenario.Measurement{
			Name:    name,
			Trigger: &scenario.ClickTrigger{Selector: "#a"},
			Target:  &scenario.WaitForStateTarget{Selector: "#x", State: document.StateVisible},
		}
	}
	s := &scenario.Scenario{
		Runs:         3,
		Timeout:      time.Second,
		Measurements: []scenario.Measurement{measurement("m1"), measurement("m2"), measurement("m3")},
	}
	observer := &recordingObserver{}

	r, err := New(s, page, clock, observer).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "stopped after 0 of 3 runs")
	require.NotNil(t, r)
	assert.Empty(t, r.Raw)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Stats)
	assert.Equal(t, 3, r.Runs)
	assert.Empty(t, observer.measurements)
	assert.Empty(t, observer.runs)
	assert.Empty(t, hook.AllEntries())
	assert.Equal(t, []string{"click #a"}, page.Actions())
}

func TestRunOnce_StopsWhenCancelled(t *testing.T) {
	clock := util.NewManualClock(baseTime)
	page := documenttest.NewPage(clock)
	page.SetElement("#a", documenttest.Always())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	page.OnAction("press:Enter", func(*documenttest.Page) { cancel() })
	s := &scenario.Scenario{
		Timeout: time.Second,
		Measurements: []scenario.Measurement{
			{Name: "m1", Trigger: &scenario.ClickTrigger{Selector: "#a"}, Target: &scenario.SleepTarget{Duration: time.Millisecond}},
			{Name: "m2", Trigger: &scenario.PressTrigger{Key: "Enter"}, Target: &scenario.SleepTarget{Duration: time.Millisecond}},
			{Name: "m3", Trigger: &scenario.ClickTrigger{Selector: "#a"}, Target: &scenario.SleepTarget{Duration: time.Millisecond}},
		},
	}

	run := New(s, page, clock).RunOnce(ctx, 1)
	require.Len(t, run.Measurements, 1)
	assert.Equal(t, "m1", run.Measurements[0].Name)
	assert.True(t, run.Measurements[0].OK)
	assert.Equal(t, []string{"click #a", "press Enter"}, page.Actions())
}
