// Package scenario contains the typed model of a latency scenario and the loader that builds it
// from a JSON or YAML file.
//
// Triggers and targets are closed sets of variants. Each variant is a pointer type implementing
// Trigger or Target; code that consumes them switches on the concrete type.
package scenario

import (
	"time"

	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

const (
	DefaultRuns            = 10
	DefaultTimeout         = 10 * time.Second
	DefaultWaitUntil       = document.WaitUntilDOMContentLoaded
	DefaultStableFor       = 600 * time.Millisecond
	DefaultStablePoll      = 100 * time.Millisecond
	DefaultSlice           = 250 * time.Millisecond
	DefaultPollGap         = 50 * time.Millisecond
	DefaultCountPoll       = 50 * time.Millisecond
	DefaultMeasurementName = "unnamed"
)

type Scenario struct {
	Name         string
	URL          string
	Runs         int
	Timeout      time.Duration
	Headed       bool
	Measurements []Measurement
}

// Measurement is a named trigger/target pair. The time measured is the time taken by the
// trigger plus the time until the target is reached.
type Measurement struct {
	Name    string
	Trigger Trigger
	Target  Target
}

// Budget returns the time the target of m may take: its own timeout if it sets one,
// otherwise the scenario default.
func (s *Scenario) Budget(m Measurement) time.Duration {
	if t := m.Target.Timeout(); t > 0 {
		return t
	}
	return s.Timeout
}

// Trigger is an action performed on the document to start a measurement.
type Trigger interface {
	Type() string
	isTrigger()
}

type NavigateTrigger struct {
	// Empty means the scenario URL.
	URL       string
	WaitUntil document.ReadinessPolicy
}

type ClickTrigger struct {
	Selector string
}

type FillTrigger struct {
	Selector string
	Text     string
}

type PressTrigger struct {
	Key string
}

type SleepTrigger struct {
	Duration time.Duration
}

func (*NavigateTrigger) Type() string { return "goto" }
func (*ClickTrigger) Type() string    { return "click" }
func (*FillTrigger) Type() string     { return "fill" }
func (*PressTrigger) Type() string    { return "press" }
func (*SleepTrigger) Type() string    { return "sleep" }

func (*NavigateTrigger) isTrigger() {}
func (*ClickTrigger) isTrigger()    {}
func (*FillTrigger) isTrigger()     {}
func (*PressTrigger) isTrigger()    {}
func (*SleepTrigger) isTrigger()    {}

// Target is a condition on the document that ends a measurement.
type Target interface {
	Type() string
	// Timeout returns the target's own timeout, or zero if it uses the one it is given.
	Timeout() time.Duration
	isTarget()
}

// TimeoutOverride is embedded by every target.
type TimeoutOverride struct {
	Override time.Duration
}

func (o TimeoutOverride) Timeout() time.Duration { return o.Override }

// WaitForStateTarget is reached when the first element matching Selector is in State.
type WaitForStateTarget struct {
	TimeoutOverride
	Selector string
	State    document.ElementState
}

// SleepTarget is reached after a fixed delay.
type SleepTarget struct {
	TimeoutOverride
	Duration time.Duration
}

// WaitStableTarget is reached once the document structure hasn't changed for StableFor.
type WaitStableTarget struct {
	TimeoutOverride
	StableFor    time.Duration
	PollInterval time.Duration
}

// WaitAnyTarget is reached as soon as any of Targets is. Targets are tried in order,
// each for at most Slice, with PollGap between rounds.
type WaitAnyTarget struct {
	TimeoutOverride
	Targets []Target
	Slice   time.Duration
	PollGap time.Duration
}

// WaitCountIncreaseTarget is reached once more elements match Selector than did just before
// the trigger fired.
type WaitCountIncreaseTarget struct {
	TimeoutOverride
	Selector     string
	PollInterval time.Duration
}

func (t *WaitForStateTarget) Type() string    { return "wait_" + string(t.State) }
func (*SleepTarget) Type() string             { return "sleep" }
func (*WaitStableTarget) Type() string        { return "wait_stable" }
func (*WaitAnyTarget) Type() string           { return "wait_any" }
func (*WaitCountIncreaseTarget) Type() string { return "wait_count_increase" }

func (*WaitForStateTarget) isTarget()      {}
func (*SleepTarget) isTarget()             {}
func (*WaitStableTarget) isTarget()        {}
func (*WaitAnyTarget) isTarget()           {}
func (*WaitCountIncreaseTarget) isTarget() {}
