package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

// Only the most recent sub-target errors are kept in a wait_any timeout.
const maxRecordedErrors = 6

// waitAny tries each sub-target in order for at most one slice of the remaining budget,
// sleeping for the poll gap between rounds, until one succeeds.
// Sub-targets are never run concurrently; earlier sub-targets win ties.
func (e *Executor) waitAny(ctx context.Context, t *scenario.WaitAnyTarget, budget time.Duration, baselines Baselines) (*Detail, error) {
	deadline := e.clock.Now().Add(budget)
	recent := &errorTail{max: maxRecordedErrors}
	for {
		for i, sub := range t.Targets {
			remaining := deadline.Sub(e.clock.Now())
			if remaining <= 0 {
				return nil, waitAnyTimeout(budget, recent)
			}
			attempt := minDuration(t.Slice, remaining)
			if override := sub.Timeout(); override > 0 {
				attempt = minDuration(attempt, override)
			}
			detail, err := e.Target(ctx, sub, attempt, baselines)
			if err == nil {
				return &Detail{WinnerIndex: i, Winner: scenario.Describe(sub), WinnerDetail: detail}, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			recent.add(errors.WithMessagef(err, "target[%d] %s", i, sub.Type()))
		}
		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return nil, waitAnyTimeout(budget, recent)
		}
		if err := e.document.Sleep(ctx, minDuration(t.PollGap, remaining)); err != nil {
			return nil, err
		}
	}
}

func waitAnyTimeout(budget time.Duration, recent *errorTail) error {
	return errors.WithStack(&latencyerrors.ErrTimeout{
		Operation: "wait_any",
		Timeout:   budget,
		Details:   recent.String(),
	})
}

// errorTail keeps the last max errors added to it.
type errorTail struct {
	max    int
	total  int
	errors []error
}

func (t *errorTail) add(err error) {
	t.total++
	t.errors = append(t.errors, err)
	if len(t.errors) > t.max {
		t.errors = t.errors[len(t.errors)-t.max:]
	}
}

func (t *errorTail) String() string {
	if t.total == 0 {
		return "no sub-target was attempted"
	}
	merr := &multierror.Error{
		Errors: t.errors,
		ErrorFormat: func(es []error) string {
			msgs := make([]string, len(es))
			for i, err := range es {
				msgs[i] = err.Error()
			}
			return fmt.Sprintf("last %d of %d sub-target errors: %s", len(es), t.total, strings.Join(msgs, " | "))
		},
	}
	return merr.Error()
}
