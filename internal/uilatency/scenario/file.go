package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/config"
	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

// File is the on-disk form of a scenario.
type File struct {
	Name         string              `mapstructure:"name" json:"name"`
	URL          string              `mapstructure:"url" json:"url"`
	Runs         int                 `mapstructure:"runs" json:"runs" validate:"gt=0"`
	TimeoutMs    config.Milliseconds `mapstructure:"timeout_ms" json:"timeout_ms" validate:"gt=0"`
	Headed       bool                `mapstructure:"headed" json:"headed"`
	Measurements []MeasurementSpec   `mapstructure:"measurements" json:"measurements" validate:"min=1"`
}

type MeasurementSpec struct {
	Name    string       `mapstructure:"name" json:"name"`
	Trigger *Instruction `mapstructure:"trigger" json:"trigger"`
	Target  *Instruction `mapstructure:"target" json:"target"`
}

// Instruction is the on-disk form of both triggers and targets.
// Which fields apply depends on Type.
type Instruction struct {
	Type      string               `mapstructure:"type" json:"type"`
	URL       string               `mapstructure:"url" json:"url,omitempty"`
	WaitUntil string               `mapstructure:"wait_until" json:"wait_until,omitempty"`
	Selector  string               `mapstructure:"selector" json:"selector,omitempty"`
	Text      string               `mapstructure:"text" json:"text,omitempty"`
	Key       string               `mapstructure:"key" json:"key,omitempty"`
	Ms        *config.Milliseconds `mapstructure:"ms" json:"ms,omitempty"`
	StableMs  *config.Milliseconds `mapstructure:"stable_ms" json:"stable_ms,omitempty"`
	PollMs    *config.Milliseconds `mapstructure:"poll_ms" json:"poll_ms,omitempty"`
	SliceMs   *config.Milliseconds `mapstructure:"slice_ms" json:"slice_ms,omitempty"`
	PollGapMs *config.Milliseconds `mapstructure:"poll_gap_ms" json:"poll_gap_ms,omitempty"`
	TimeoutMs *config.Milliseconds `mapstructure:"timeout_ms" json:"timeout_ms,omitempty"`
	Targets   []*Instruction       `mapstructure:"targets" json:"targets,omitempty"`
}

// Compile validates f and converts it into a Scenario, applying defaults.
// Every problem found is reported; the returned error is a *multierror.Error whose
// elements are configuration errors.
func (f *File) Compile() (*Scenario, error) {
	var result *multierror.Error
	if err := config.Validate(f); err != nil {
		result = multierror.Append(result, err)
	}
	s := &Scenario{
		Name:    f.Name,
		URL:     f.URL,
		Runs:    f.Runs,
		Timeout: f.TimeoutMs.Duration(),
		Headed:  f.Headed,
	}
	for i, spec := range f.Measurements {
		c := &compiler{scenarioURL: f.URL}
		path := fmt.Sprintf("measurements[%d]", i)
		m := Measurement{
			Name:    spec.Name,
			Trigger: c.trigger(path+".trigger", spec.Trigger),
			Target:  c.target(path+".target", spec.Target),
		}
		if m.Name == "" {
			m.Name = DefaultMeasurementName
		}
		if c.errs != nil {
			result = multierror.Append(result, c.errs)
			continue
		}
		s.Measurements = append(s.Measurements, m)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

type compiler struct {
	scenarioURL string
	errs        *multierror.Error
}

func (c *compiler) invalid(name string, value interface{}, message string) {
	c.errs = multierror.Append(c.errs, errors.WithStack(&latencyerrors.ErrInvalidArgument{
		Name:    name,
		Value:   value,
		Message: message,
	}))
}

func (c *compiler) required(path string, field string, value string) {
	if value == "" {
		c.invalid(path+"."+field, value, "field is required but was not found")
	}
}

func (c *compiler) trigger(path string, spec *Instruction) Trigger {
	if spec == nil {
		c.invalid(path, nil, "field is required but was not found")
		return nil
	}
	switch strings.ToLower(spec.Type) {
	case "goto":
		t := &NavigateTrigger{URL: spec.URL, WaitUntil: DefaultWaitUntil}
		if spec.WaitUntil != "" {
			t.WaitUntil = document.ReadinessPolicy(spec.WaitUntil)
		}
		if !t.WaitUntil.Valid() {
			c.invalid(path+".wait_until", spec.WaitUntil, "must be one of commit, domcontentloaded, load, networkidle")
		}
		if t.URL == "" && c.scenarioURL == "" {
			c.invalid(path+".url", "", "goto needs a url when the scenario has none")
		}
		return t
	case "click":
		c.required(path, "selector", spec.Selector)
		return &ClickTrigger{Selector: spec.Selector}
	case "fill":
		c.required(path, "selector", spec.Selector)
		return &FillTrigger{Selector: spec.Selector, Text: spec.Text}
	case "press":
		c.required(path, "key", spec.Key)
		return &PressTrigger{Key: spec.Key}
	case "sleep":
		return &SleepTrigger{Duration: c.duration(path+".ms", spec.Ms, 0, false)}
	case "":
		c.invalid(path+".type", "", "field is required but was not found")
	default:
		c.errs = multierror.Append(c.errs, errors.WithStack(&latencyerrors.ErrUnsupported{Kind: "trigger", Type: spec.Type}))
	}
	return nil
}

func (c *compiler) target(path string, spec *Instruction) Target {
	if spec == nil {
		c.invalid(path, nil, "field is required but was not found")
		return nil
	}
	override := TimeoutOverride{Override: c.duration(path+".timeout_ms", spec.TimeoutMs, 0, true)}
	typ := strings.ToLower(spec.Type)
	switch typ {
	case "wait_visible", "wait_hidden", "wait_attached", "wait_detached":
		c.required(path, "selector", spec.Selector)
		return &WaitForStateTarget{
			TimeoutOverride: override,
			Selector:        spec.Selector,
			State:           document.ElementState(strings.TrimPrefix(typ, "wait_")),
		}
	case "sleep":
		return &SleepTarget{
			TimeoutOverride: override,
			Duration:        c.duration(path+".ms", spec.Ms, 0, false),
		}
	case "wait_stable":
		return &WaitStableTarget{
			TimeoutOverride: override,
			StableFor:       c.duration(path+".stable_ms", spec.StableMs, DefaultStableFor, true),
			PollInterval:    c.duration(path+".poll_ms", spec.PollMs, DefaultStablePoll, true),
		}
	case "wait_any":
		t := &WaitAnyTarget{
			TimeoutOverride: override,
			Slice:           c.duration(path+".slice_ms", spec.SliceMs, DefaultSlice, true),
			PollGap:         c.duration(path+".poll_gap_ms", spec.PollGapMs, DefaultPollGap, true),
		}
		if len(spec.Targets) == 0 {
			c.invalid(path+".targets", "[]", "wait_any needs at least one target")
		}
		for i, sub := range spec.Targets {
			t.Targets = append(t.Targets, c.target(fmt.Sprintf("%s.targets[%d]", path, i), sub))
		}
		return t
	case "wait_count_increase":
		c.required(path, "selector", spec.Selector)
		return &WaitCountIncreaseTarget{
			TimeoutOverride: override,
			Selector:        spec.Selector,
			PollInterval:    c.duration(path+".poll_ms", spec.PollMs, DefaultCountPoll, true),
		}
	case "":
		c.invalid(path+".type", "", "field is required but was not found")
	default:
		c.errs = multierror.Append(c.errs, errors.WithStack(&latencyerrors.ErrUnsupported{Kind: "target", Type: spec.Type}))
	}
	return nil
}

// duration returns value, or def if value is unset. Negative values are always invalid,
// and so is zero when positive is set.
func (c *compiler) duration(name string, value *config.Milliseconds, def time.Duration, positive bool) time.Duration {
	if value == nil {
		return def
	}
	if *value < 0 || (positive && *value == 0) {
		c.invalid(name, int64(*value), "must be positive")
		return def
	}
	return value.Duration()
}

// Describe converts t back into its on-disk form, with defaults filled in.
func Describe(t Target) *Instruction {
	spec := &Instruction{Type: t.Type()}
	if o := t.Timeout(); o > 0 {
		spec.TimeoutMs = millis(o)
	}
	switch t := t.(type) {
	case *WaitForStateTarget:
		spec.Selector = t.Selector
	case *SleepTarget:
		spec.Ms = millis(t.Duration)
	case *WaitStableTarget:
		spec.StableMs = millis(t.StableFor)
		spec.PollMs = millis(t.PollInterval)
	case *WaitAnyTarget:
		spec.SliceMs = millis(t.Slice)
		spec.PollGapMs = millis(t.PollGap)
		for _, sub := range t.Targets {
			spec.Targets = append(spec.Targets, Describe(sub))
		}
	case *WaitCountIncreaseTarget:
		spec.Selector = t.Selector
		spec.PollMs = millis(t.PollInterval)
	}
	return spec
}

func millis(d time.Duration) *config.Milliseconds {
	ms := config.Milliseconds(d / time.Millisecond)
	return &ms
}
