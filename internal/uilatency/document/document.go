// Package document defines the port through which scenarios act on and observe a live document.
//
// The port is implemented by a browser automation adapter (see package browser) and by the
// deterministic fake in package documenttest. A Document is owned by a single goroutine for
// the lifetime of a scenario and is never accessed concurrently.
package document

import (
	"context"
	"encoding/json"
	"time"
)

// ElementState is a state an element can be waited for.
type ElementState string

const (
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
	StateAttached ElementState = "attached"
	StateDetached ElementState = "detached"
)

func (s ElementState) Valid() bool {
	switch s {
	case StateVisible, StateHidden, StateAttached, StateDetached:
		return true
	}
	return false
}

// Satisfied reports whether an element that is (or isn't) attached and visible is in state s.
// Hidden is satisfied by detached elements too.
func (s ElementState) Satisfied(attached, visible bool) bool {
	switch s {
	case StateVisible:
		return attached && visible
	case StateHidden:
		return !attached || !visible
	case StateAttached:
		return attached
	case StateDetached:
		return !attached
	}
	return false
}

// ReadinessPolicy controls how long a navigation waits before returning.
// It is passed through to the adapter untouched.
type ReadinessPolicy string

const (
	WaitUntilCommit           ReadinessPolicy = "commit"
	WaitUntilDOMContentLoaded ReadinessPolicy = "domcontentloaded"
	WaitUntilLoad             ReadinessPolicy = "load"
	WaitUntilNetworkIdle      ReadinessPolicy = "networkidle"
)

func (p ReadinessPolicy) Valid() bool {
	switch p {
	case WaitUntilCommit, WaitUntilDOMContentLoaded, WaitUntilLoad, WaitUntilNetworkIdle:
		return true
	}
	return false
}

// ElementHandle refers to the first element matching a selector.
// Handles are lazy: resolving one doesn't require a match to exist yet.
type ElementHandle interface {
	Selector() string
}

// Document is the set of capabilities the engine needs from a live document.
//
// Waits must return an error wrapping latencyerrors.ErrTimeout (or context.DeadlineExceeded)
// when they run out of time, and must never block past their timeout.
type Document interface {
	Navigate(ctx context.Context, url string, waitUntil ReadinessPolicy, timeout time.Duration) error
	ResolveFirst(ctx context.Context, selector string) (ElementHandle, error)
	Click(ctx context.Context, el ElementHandle, timeout time.Duration) error
	Fill(ctx context.Context, el ElementHandle, text string, timeout time.Duration) error
	PressKey(ctx context.Context, key string) error
	WaitForState(ctx context.Context, el ElementHandle, state ElementState, timeout time.Duration) error
	// Evaluate calls the JavaScript function expression script with args and returns its JSON encoded result.
	Evaluate(ctx context.Context, script string, args any, timeout time.Duration) (json.RawMessage, error)
	Sleep(ctx context.Context, d time.Duration) error
	CountMatches(ctx context.Context, selector string) (int, error)
}

// Snapshot is the structural summary of a document used to detect quiescence.
// Style-only changes that don't affect layout size or element count are not captured.
type Snapshot struct {
	Nodes      int    `json:"nodes"`
	Height     int    `json:"h"`
	Width      int    `json:"w"`
	ReadyState string `json:"rs"`
}

// SnapshotScript produces a Snapshot when passed to Document.Evaluate.
const SnapshotScript = `() => {
  const docEl = document.documentElement;
  return {
    nodes: document.getElementsByTagName('*').length,
    h: docEl.scrollHeight,
    w: docEl.scrollWidth,
    rs: document.readyState,
  };
}`

// Selector is the trivial ElementHandle.
type Selector string

func (s Selector) Selector() string { return string(s) }
