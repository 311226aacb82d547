package executor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/uilatency/document"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

// waitStable polls a structural snapshot of the document and succeeds once it has gone
// unchanged for StableFor. The settle instant is the last observed change plus StableFor,
// rounded up to the next poll.
func (e *Executor) waitStable(ctx context.Context, t *scenario.WaitStableTarget, budget time.Duration) error {
	deadline := e.clock.Now().Add(budget)
	prev, err := e.snapshot(ctx, budget)
	if err != nil {
		return err
	}
	lastChange := e.clock.Now()
	for {
		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return e.notStable(t, budget)
		}
		if err := e.document.Sleep(ctx, minDuration(t.PollInterval, remaining)); err != nil {
			return err
		}
		remaining = deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return e.notStable(t, budget)
		}
		cur, err := e.snapshot(ctx, remaining)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if cur != prev {
			prev = cur
			lastChange = now
			continue
		}
		if now.Sub(lastChange) >= t.StableFor {
			return nil
		}
	}
}

func (e *Executor) snapshot(ctx context.Context, timeout time.Duration) (document.Snapshot, error) {
	var s document.Snapshot
	raw, err := e.document.Evaluate(ctx, document.SnapshotScript, nil, timeout)
	if err != nil {
		return s, actionError("snapshot", "", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, errors.WithStack(&latencyerrors.ErrAction{Action: "snapshot", Err: err})
	}
	return s, nil
}

func (e *Executor) notStable(t *scenario.WaitStableTarget, budget time.Duration) error {
	return errors.WithStack(&latencyerrors.ErrTimeout{
		Operation: "wait_stable",
		Timeout:   budget,
		Details:   "document did not stay unchanged for " + t.StableFor.String(),
	})
}
