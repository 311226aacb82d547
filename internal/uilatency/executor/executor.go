// Package executor performs scenario triggers against a document and waits for targets.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/util"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

// Executor drives a single document. It is not safe for concurrent use.
type Executor struct {
	document document.Document
	clock    util.Clock
	// Navigations without a URL go here.
	baseURL string
}

func New(doc document.Document, clock util.Clock, baseURL string) *Executor {
	return &Executor{document: doc, clock: clock, baseURL: baseURL}
}

// Detail describes how a composite target was reached.
type Detail struct {
	// Zero-based position of the sub-target that was reached first.
	WinnerIndex int                   `json:"winner_index"`
	Winner      *scenario.Instruction `json:"winner"`
	// Set when the winner is itself composite.
	WinnerDetail *Detail `json:"winner_detail,omitempty"`
}

// Baselines holds state captured before a trigger fires that targets compare against afterwards.
type Baselines map[*scenario.WaitCountIncreaseTarget]int

// Prepare captures the baselines needed by target and any targets nested inside it.
// It must be called before the trigger of the measurement fires.
func (e *Executor) Prepare(ctx context.Context, target scenario.Target) (Baselines, error) {
	baselines := make(Baselines)
	if err := e.prepare(ctx, target, baselines); err != nil {
		return nil, err
	}
	return baselines, nil
}

func (e *Executor) prepare(ctx context.Context, target scenario.Target, baselines Baselines) error {
	switch t := target.(type) {
	case *scenario.WaitCountIncreaseTarget:
		n, err := e.document.CountMatches(ctx, t.Selector)
		if err != nil {
			return actionError("count", t.Selector, err)
		}
		baselines[t] = n
	case *scenario.WaitAnyTarget:
		for _, sub := range t.Targets {
			if err := e.prepare(ctx, sub, baselines); err != nil {
				return err
			}
		}
	}
	return nil
}

// Trigger performs trigger, giving actions that wait for their element up to timeout.
func (e *Executor) Trigger(ctx context.Context, trigger scenario.Trigger, timeout time.Duration) error {
	switch t := trigger.(type) {
	case *scenario.NavigateTrigger:
		url := t.URL
		if url == "" {
			url = e.baseURL
		}
		return actionError("goto", "", e.document.Navigate(ctx, url, t.WaitUntil, timeout))
	case *scenario.ClickTrigger:
		el, err := e.resolve(ctx, t.Selector)
		if err != nil {
			return err
		}
		return actionError("click", t.Selector, e.document.Click(ctx, el, timeout))
	case *scenario.FillTrigger:
		el, err := e.resolve(ctx, t.Selector)
		if err != nil {
			return err
		}
		return actionError("fill", t.Selector, e.document.Fill(ctx, el, t.Text, timeout))
	case *scenario.PressTrigger:
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return actionError("press", "", e.document.PressKey(ctx, t.Key))
	case *scenario.SleepTrigger:
		return e.document.Sleep(ctx, t.Duration)
	default:
		return errors.WithStack(&latencyerrors.ErrUnsupported{Kind: "trigger", Type: fmt.Sprintf("%T", trigger)})
	}
}

// Target blocks until target is reached or budget is used up.
// baselines must come from Prepare for the same target.
func (e *Executor) Target(ctx context.Context, target scenario.Target, budget time.Duration, baselines Baselines) (*Detail, error) {
	switch t := target.(type) {
	case *scenario.WaitForStateTarget:
		return nil, e.waitForState(ctx, t, budget)
	case *scenario.SleepTarget:
		return nil, e.sleep(ctx, t, budget)
	case *scenario.WaitStableTarget:
		return nil, e.waitStable(ctx, t, budget)
	case *scenario.WaitAnyTarget:
		return e.waitAny(ctx, t, budget, baselines)
	case *scenario.WaitCountIncreaseTarget:
		return nil, e.waitCountIncrease(ctx, t, budget, baselines)
	default:
		return nil, errors.WithStack(&latencyerrors.ErrUnsupported{Kind: "target", Type: fmt.Sprintf("%T", target)})
	}
}

func (e *Executor) waitForState(ctx context.Context, t *scenario.WaitForStateTarget, budget time.Duration) error {
	el, err := e.resolve(ctx, t.Selector)
	if err != nil {
		return err
	}
	err = e.document.WaitForState(ctx, el, t.State, budget)
	if errors.Is(err, context.DeadlineExceeded) && !latencyerrors.IsTimeout(err) {
		return errors.WithStack(&latencyerrors.ErrTimeout{
			Operation: t.Type(),
			Selector:  t.Selector,
			State:     string(t.State),
			Timeout:   budget,
		})
	}
	return err
}

// A sleep longer than its budget sleeps for the budget and then times out.
func (e *Executor) sleep(ctx context.Context, t *scenario.SleepTarget, budget time.Duration) error {
	if t.Duration <= budget {
		return e.document.Sleep(ctx, t.Duration)
	}
	if err := e.document.Sleep(ctx, budget); err != nil {
		return err
	}
	return errors.WithStack(&latencyerrors.ErrTimeout{
		Operation: "sleep",
		Timeout:   budget,
		Details:   fmt.Sprintf("sleep of %s exceeds the timeout", t.Duration),
	})
}

func (e *Executor) waitCountIncrease(ctx context.Context, t *scenario.WaitCountIncreaseTarget, budget time.Duration, baselines Baselines) error {
	baseline, ok := baselines[t]
	if !ok {
		n, err := e.document.CountMatches(ctx, t.Selector)
		if err != nil {
			return actionError("count", t.Selector, err)
		}
		baseline = n
	}
	deadline := e.clock.Now().Add(budget)
	for {
		n, err := e.document.CountMatches(ctx, t.Selector)
		if err != nil {
			return actionError("count", t.Selector, err)
		}
		if n > baseline {
			return nil
		}
		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return errors.WithStack(&latencyerrors.ErrTimeout{
				Operation: "wait_count_increase",
				Selector:  t.Selector,
				Timeout:   budget,
				Details:   fmt.Sprintf("count stayed at %d", n),
			})
		}
		if err := e.document.Sleep(ctx, minDuration(t.PollInterval, remaining)); err != nil {
			return err
		}
	}
}

func (e *Executor) resolve(ctx context.Context, selector string) (document.ElementHandle, error) {
	el, err := e.document.ResolveFirst(ctx, selector)
	if err != nil {
		if latencyerrors.Kind(err) == "element_resolution" {
			return nil, err
		}
		return nil, errors.WithStack(&latencyerrors.ErrElementResolution{Selector: selector, Err: err})
	}
	return el, nil
}

// actionError classifies errors returned by the document.
// Errors that are already classified, and context cancellation, pass through unchanged.
func actionError(action string, selector string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || latencyerrors.Kind(err) != "unknown" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(&latencyerrors.ErrTimeout{Operation: action, Selector: selector})
	}
	return errors.WithStack(&latencyerrors.ErrAction{Action: action, Selector: selector, Err: err})
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
