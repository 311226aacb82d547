// Package documenttest provides a scripted, clock-driven document.Document for tests.
//
// Element visibility, snapshots, and match counts are expressed as functions of the time
// elapsed since the Page was created. Waits scan forward in Step increments and advance the
// shared ManualClock to the instant they succeed, or by their full timeout when they don't,
// so every measurement taken against a Page is exact and repeatable.
package documenttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/util"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

const Step = time.Millisecond

// Timeline describes an element as a function of elapsed time.
type Timeline func(elapsed time.Duration) (attached, visible bool)

// Always is shown from the start.
func Always() Timeline {
	return func(time.Duration) (bool, bool) { return true, true }
}

// Never is never attached.
func Never() Timeline {
	return func(time.Duration) (bool, bool) { return false, false }
}

// ShownFrom is attached and visible from at onwards.
func ShownFrom(at time.Duration) Timeline {
	return func(elapsed time.Duration) (bool, bool) {
		shown := elapsed >= at
		return shown, shown
	}
}

// ShownUntil is attached and visible until at, then detached.
func ShownUntil(at time.Duration) Timeline {
	return func(elapsed time.Duration) (bool, bool) {
		shown := elapsed < at
		return shown, shown
	}
}

// Page is a fake document. The zero value is not usable; create one with NewPage.
type Page struct {
	Clock *util.ManualClock
	// How long each action (navigate, click, fill, press) takes to complete.
	ActionLatency time.Duration
	// Called when Evaluate receives anything other than document.SnapshotScript.
	EvaluateFunc func(script string, args any) (json.RawMessage, error)

	mu         sync.Mutex
	start      time.Time
	elements   map[string]Timeline
	counts     map[string]func(elapsed time.Duration) int
	snapshots  func(elapsed time.Duration) document.Snapshot
	actionErrs map[string]error
	waitErrs   map[string]error
	onAction   map[string]func(p *Page)
	actions    []string
}

func NewPage(clock *util.ManualClock) *Page {
	return &Page{
		Clock:      clock,
		start:      clock.Now(),
		elements:   make(map[string]Timeline),
		counts:     make(map[string]func(time.Duration) int),
		actionErrs: make(map[string]error),
		waitErrs:   make(map[string]error),
		onAction:   make(map[string]func(*Page)),
	}
}

// Elapsed returns the time since the page was created.
func (p *Page) Elapsed() time.Duration {
	return p.Clock.Now().Sub(p.start)
}

// SetElement scripts the element matched by selector.
func (p *Page) SetElement(selector string, timeline Timeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = timeline
}

// ShowAfter makes selector appear d after the current instant.
func (p *Page) ShowAfter(selector string, d time.Duration) {
	p.SetElement(selector, ShownFrom(p.Elapsed()+d))
}

// HideAfter makes selector disappear d after the current instant.
func (p *Page) HideAfter(selector string, d time.Duration) {
	p.SetElement(selector, ShownUntil(p.Elapsed()+d))
}

// SetCount scripts the number of elements matched by selector.
// Selectors without a count script match as many elements as their timeline has attached.
func (p *Page) SetCount(selector string, count func(elapsed time.Duration) int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[selector] = count
}

// SetSnapshots scripts the result of evaluating document.SnapshotScript.
func (p *Page) SetSnapshots(f func(elapsed time.Duration) document.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = f
}

// FailAction makes every action of the given kind ("navigate", "click", "fill", "press") fail with err.
func (p *Page) FailAction(action string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actionErrs[action] = err
}

// FailWaits makes waits on selector fail immediately with err.
func (p *Page) FailWaits(selector string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitErrs[selector] = err
}

// OnAction registers f to run after each successful action with the given key:
// "navigate", "press:<key>", or "<action>:<selector>" for click and fill.
func (p *Page) OnAction(key string, f func(p *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAction[key] = f
}

// Actions returns the log of actions performed so far.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *Page) Navigate(ctx context.Context, url string, waitUntil document.ReadinessPolicy, _ time.Duration) error {
	return p.act(ctx, "navigate", "navigate", fmt.Sprintf("navigate %s (%s)", url, waitUntil))
}

func (p *Page) ResolveFirst(_ context.Context, selector string) (document.ElementHandle, error) {
	if selector == "" {
		return nil, errors.WithStack(&latencyerrors.ErrElementResolution{Selector: selector, Message: "empty selector"})
	}
	return document.Selector(selector), nil
}

func (p *Page) Click(ctx context.Context, el document.ElementHandle, timeout time.Duration) error {
	if err := p.waitActionable(ctx, el, timeout); err != nil {
		return err
	}
	return p.act(ctx, "click", "click:"+el.Selector(), "click "+el.Selector())
}

func (p *Page) Fill(ctx context.Context, el document.ElementHandle, text string, timeout time.Duration) error {
	if err := p.waitActionable(ctx, el, timeout); err != nil {
		return err
	}
	return p.act(ctx, "fill", "fill:"+el.Selector(), fmt.Sprintf("fill %s %q", el.Selector(), text))
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	return p.act(ctx, "press", "press:"+key, "press "+key)
}

func (p *Page) WaitForState(ctx context.Context, el document.ElementHandle, state document.ElementState, timeout time.Duration) error {
	p.mu.Lock()
	err := p.waitErrs[el.Selector()]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if !p.scan(ctx, timeout, func(elapsed time.Duration) bool {
		return state.Satisfied(p.element(el.Selector(), elapsed))
	}) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.WithStack(&latencyerrors.ErrTimeout{
			Operation: "wait_for_selector",
			Selector:  el.Selector(),
			State:     string(state),
			Timeout:   timeout,
		})
	}
	return nil
}

func (p *Page) Evaluate(ctx context.Context, script string, args any, _ time.Duration) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if script != document.SnapshotScript {
		if p.EvaluateFunc == nil {
			return nil, errors.Errorf("no evaluate function scripted for %q", script)
		}
		return p.EvaluateFunc(script, args)
	}
	p.mu.Lock()
	f := p.snapshots
	p.mu.Unlock()
	snapshot := document.Snapshot{Nodes: 1, ReadyState: "complete"}
	if f != nil {
		snapshot = f(p.Elapsed())
	}
	b, err := json.Marshal(snapshot)
	return b, errors.WithStack(err)
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Clock.Advance(d)
	return nil
}

func (p *Page) CountMatches(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	count, ok := p.counts[selector]
	p.mu.Unlock()
	if ok {
		return count(p.Elapsed()), nil
	}
	if attached, _ := p.element(selector, p.Elapsed()); attached {
		return 1, nil
	}
	return 0, nil
}

func (p *Page) element(selector string, elapsed time.Duration) (bool, bool) {
	p.mu.Lock()
	timeline, ok := p.elements[selector]
	p.mu.Unlock()
	if !ok {
		return false, false
	}
	return timeline(elapsed)
}

func (p *Page) waitActionable(ctx context.Context, el document.ElementHandle, timeout time.Duration) error {
	if p.scan(ctx, timeout, func(elapsed time.Duration) bool {
		return document.StateVisible.Satisfied(p.element(el.Selector(), elapsed))
	}) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.WithStack(&latencyerrors.ErrElementResolution{
		Selector: el.Selector(),
		Err:      &latencyerrors.ErrTimeout{Operation: "resolve", Selector: el.Selector(), Timeout: timeout},
	})
}

// scan advances the clock in Step increments over [now, now+timeout) until cond holds.
// If cond never holds the clock ends up exactly timeout later.
func (p *Page) scan(ctx context.Context, timeout time.Duration, cond func(elapsed time.Duration) bool) bool {
	from := p.Elapsed()
	for offset := time.Duration(0); offset < timeout; offset += Step {
		if ctx.Err() != nil {
			return false
		}
		if cond(from + offset) {
			p.Clock.Advance(offset)
			return true
		}
	}
	p.Clock.Advance(timeout)
	return false
}

func (p *Page) act(ctx context.Context, action string, key string, entry string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	err := p.actionErrs[action]
	hook := p.onAction[key]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.Clock.Advance(p.ActionLatency)
	p.mu.Lock()
	p.actions = append(p.actions, entry)
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

var _ document.Document = &Page{}
