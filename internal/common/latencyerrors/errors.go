// Package latencyerrors contains the error types returned while loading and executing scenarios.
//
// Configuration errors (ErrInvalidArgument, ErrUnsupported) are fatal and abort the process
// before any run starts. The remaining errors are scoped to a single trigger or target and
// are recorded against the measurement that produced them.
//
// Create errors with errors.WithStack from github.com/pkg/errors so that logging can attach
// the stack trace; inspect them with errors.As, which looks through the whole chain.
package latencyerrors

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a scenario field is missing or has an invalid value.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "measurements[0].trigger.selector"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
}

// ErrUnsupported is returned for instruction types the engine does not know about.
type ErrUnsupported struct {
	Kind string // "trigger" or "target"
	Type string // The type string found in the configuration
}

func (err *ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported %s type: %q", err.Kind, err.Type)
}

// ErrElementResolution indicates that a selector matched nothing, or did not match in time.
type ErrElementResolution struct {
	Selector string
	Message  string
	Err      error
}

func (err *ErrElementResolution) Error() string {
	s := fmt.Sprintf("could not resolve element %q", err.Selector)
	if err.Message != "" {
		s += "; " + err.Message
	}
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *ErrElementResolution) Unwrap() error { return err.Err }

// ErrTimeout indicates that a wait exceeded its deadline.
// Selector and State are empty for waits that aren't about a single element.
type ErrTimeout struct {
	Operation string
	Selector  string
	State     string
	Timeout   time.Duration
	// Optional extra context, e.g. the most recent sub-errors of a wait_any.
	Details string
}

func (err *ErrTimeout) Error() string {
	s := err.Operation + " timed out"
	if err.Timeout > 0 {
		s += fmt.Sprintf(" after %s", err.Timeout)
	}
	if err.Selector != "" && err.State != "" {
		s += fmt.Sprintf(" waiting for %q to be %s", err.Selector, err.State)
	} else if err.Selector != "" {
		s += fmt.Sprintf(" waiting for %q", err.Selector)
	}
	if err.Details != "" {
		s += "; " + err.Details
	}
	return s
}

// ErrAction indicates that an interaction with the document failed,
// e.g., because the element was not interactable.
type ErrAction struct {
	Action   string
	Selector string
	Err      error
}

func (err *ErrAction) Error() string {
	s := err.Action + " failed"
	if err.Selector != "" {
		s = fmt.Sprintf("%s on %q failed", err.Action, err.Selector)
	}
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *ErrAction) Unwrap() error { return err.Err }

// IsConfigurationError returns true if err, or any error in its chain, is a configuration error.
func IsConfigurationError(err error) bool {
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return true
		}
	}
	{
		var e *ErrUnsupported
		if errors.As(err, &e) {
			return true
		}
	}
	return false
}

// IsTimeout returns true if err, or any error in its chain, is an ErrTimeout.
func IsTimeout(err error) bool {
	var e *ErrTimeout
	return errors.As(err, &e)
}

// Kind returns a short classification of err, suitable for metric labels and report types.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if IsConfigurationError(err) {
		return "configuration"
	}
	// A resolution error may wrap the timeout that caused it.
	{
		var e *ErrElementResolution
		if errors.As(err, &e) {
			return "element_resolution"
		}
	}
	if IsTimeout(err) {
		return "timeout"
	}
	{
		var e *ErrAction
		if errors.As(err, &e) {
			return "action"
		}
	}
	return "unknown"
}
