// Package browser implements document.Document on top of a Chrome instance driven over the
// DevTools protocol.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

const (
	launchAttempts = 3
	launchDelay    = 500 * time.Millisecond
	// How often element states and ready states are probed.
	pollInterval = 25 * time.Millisecond
)

const probeScript = `(selector) => {
  const el = document.querySelector(selector);
  if (!el) {
    return { attached: false, visible: false };
  }
  const rect = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  const visible = rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
  return { attached: true, visible: visible };
}`

const countScript = `(selector) => document.querySelectorAll(selector).length`

const readyStateScript = `() => document.readyState`

// Browser is a single Chrome tab. Create one with Launch and release it with Close.
type Browser struct {
	// Id of this browser session, attached to every log line.
	id          uuid.UUID
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *logging.Logger
}

// Launch starts Chrome, headless unless headed is set, and opens a blank tab.
// Starting the browser is retried a few times since it occasionally fails on loaded machines.
func Launch(ctx context.Context, headed bool) (*Browser, error) {
	id := uuid.New()
	logger := logging.WithField("session", id.String())

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", !headed))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	var tabCtx context.Context
	var cancelTab context.CancelFunc
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tabCtx, cancelTab = chromedp.NewContext(allocCtx)
			if err := chromedp.Run(tabCtx); err != nil {
				cancelTab()
				return err
			}
			return nil
		},
		retry.Attempts(launchAttempts),
		retry.Delay(launchDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.WithError(err).Warnf("failed to start browser on attempt %d", n+1)
		}),
	)
	if err != nil {
		cancelAlloc()
		return nil, errors.WithMessage(err, "failed to launch browser")
	}
	logger.Infof("launched browser (headed: %t)", headed)
	return &Browser{
		id:          id,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelTab()
	b.cancelAlloc()
	b.logger.Debug("closed browser")
	return errors.WithStack(err)
}

func (b *Browser) Navigate(ctx context.Context, url string, waitUntil document.ReadinessPolicy, timeout time.Duration) error {
	opCtx, cancel := b.operation(ctx, timeout)
	defer cancel()
	if err := chromedp.Run(opCtx, chromedp.Navigate(url)); err != nil {
		return b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "goto", Timeout: timeout})
	}
	wanted := readyStates(waitUntil)
	if len(wanted) == 0 {
		return nil
	}
	for {
		var state string
		if err := chromedp.Run(opCtx, chromedp.Evaluate(call(readyStateScript), &state)); err != nil {
			return b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "goto", Timeout: timeout, Details: "waiting for " + string(waitUntil)})
		}
		if wanted[state] {
			return nil
		}
		if err := sleep(opCtx, pollInterval); err != nil {
			return b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "goto", Timeout: timeout, Details: "waiting for " + string(waitUntil)})
		}
	}
}

// ResolveFirst doesn't touch the page; the selector is matched when the handle is used.
func (b *Browser) ResolveFirst(_ context.Context, selector string) (document.ElementHandle, error) {
	if selector == "" {
		return nil, errors.WithStack(&latencyerrors.ErrElementResolution{Selector: selector, Message: "empty selector"})
	}
	return document.Selector(selector), nil
}

func (b *Browser) Click(ctx context.Context, el document.ElementHandle, timeout time.Duration) error {
	opCtx, cancel := b.operation(ctx, timeout)
	defer cancel()
	err := chromedp.Run(opCtx, chromedp.Click(el.Selector(), chromedp.ByQuery, chromedp.NodeVisible))
	return b.classify(ctx, opCtx, err, resolutionTimeout(el, timeout))
}

func (b *Browser) Fill(ctx context.Context, el document.ElementHandle, text string, timeout time.Duration) error {
	opCtx, cancel := b.operation(ctx, timeout)
	defer cancel()
	err := chromedp.Run(opCtx,
		chromedp.Clear(el.Selector(), chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.SendKeys(el.Selector(), text, chromedp.ByQuery, chromedp.NodeVisible),
	)
	return b.classify(ctx, opCtx, err, resolutionTimeout(el, timeout))
}

// PressKey sends key to the focused element. The caller bounds it with ctx.
func (b *Browser) PressKey(ctx context.Context, key string) error {
	opCtx, cancel := b.operation(ctx, 0)
	defer cancel()
	err := chromedp.Run(opCtx, chromedp.KeyEvent(keyInput(key)))
	return b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "press"})
}

func (b *Browser) WaitForState(ctx context.Context, el document.ElementHandle, state document.ElementState, timeout time.Duration) error {
	opCtx, cancel := b.operation(ctx, timeout)
	defer cancel()
	timeoutErr := &latencyerrors.ErrTimeout{
		Operation: "wait_for_selector",
		Selector:  el.Selector(),
		State:     string(state),
		Timeout:   timeout,
	}
	for {
		var probe struct {
			Attached bool `json:"attached"`
			Visible  bool `json:"visible"`
		}
		if err := b.evaluate(opCtx, probeScript, el.Selector(), &probe); err != nil {
			return b.classify(ctx, opCtx, err, timeoutErr)
		}
		if state.Satisfied(probe.Attached, probe.Visible) {
			return nil
		}
		if err := sleep(opCtx, pollInterval); err != nil {
			return b.classify(ctx, opCtx, err, timeoutErr)
		}
	}
}

func (b *Browser) Evaluate(ctx context.Context, script string, args any, timeout time.Duration) (json.RawMessage, error) {
	opCtx, cancel := b.operation(ctx, timeout)
	defer cancel()
	var raw []byte
	if err := b.evaluate(opCtx, script, args, &raw); err != nil {
		return nil, b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "evaluate", Timeout: timeout})
	}
	return raw, nil
}

func (b *Browser) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (b *Browser) CountMatches(ctx context.Context, selector string) (int, error) {
	opCtx, cancel := b.operation(ctx, 0)
	defer cancel()
	var n int
	if err := b.evaluate(opCtx, countScript, selector, &n); err != nil {
		return 0, b.classify(ctx, opCtx, err, &latencyerrors.ErrTimeout{Operation: "count", Selector: selector})
	}
	return n, nil
}

// operation derives a context for a single DevTools call from the tab context,
// cancelled when ctx is or after timeout. A zero timeout means no limit beyond ctx.
func (b *Browser) operation(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var opCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(b.ctx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(b.ctx)
	}
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		opCtx, cancelDeadline = context.WithDeadline(opCtx, deadline)
		inner := cancel
		cancel = func() { cancelDeadline(); inner() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// classify turns an operation's deadline into onTimeout and leaves cancellation of
// the caller's context as is.
func (b *Browser) classify(ctx context.Context, opCtx context.Context, err error, onTimeout error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return ctxErr
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(onTimeout)
	}
	b.logger.WithError(err).Debug("devtools call failed")
	return errors.WithStack(err)
}

func (b *Browser) evaluate(ctx context.Context, script string, args any, res any) error {
	expression, err := callWith(script, args)
	if err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.Evaluate(expression, res, awaitPromise))
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func resolutionTimeout(el document.ElementHandle, timeout time.Duration) error {
	return &latencyerrors.ErrElementResolution{
		Selector: el.Selector(),
		Err:      &latencyerrors.ErrTimeout{Operation: "resolve", Selector: el.Selector(), Timeout: timeout},
	}
}

// call returns an expression invoking the function expression script without arguments.
func call(script string) string {
	return fmt.Sprintf("(%s)()", script)
}

// callWith returns an expression invoking the function expression script with args.
// A slice is spread into positional arguments; anything else is passed as the only argument.
func callWith(script string, args any) (string, error) {
	if args == nil {
		return call(script), nil
	}
	var list []any
	switch a := args.(type) {
	case []any:
		list = a
	default:
		list = []any{a}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return fmt.Sprintf("(%s)(...%s)", script, b), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ document.Document = &Browser{}
