package contract

import (
	"errors"
	"fmt"
)

// ErrNoEntryPoint is returned when no entry point was configured.
var ErrNoEntryPoint = errors.New("no entry point configured")

// ConfigurationError reports a configuration value that cannot be used.
type ConfigurationError struct {
	Field  string // Config key, e.g. "entry-point"
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// StreamReadError reports a failure of the change stream before it completed.
// Any partially collected paths are discarded.
type StreamReadError struct {
	Cause error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("reading change stream: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StreamReadError) Unwrap() error { return e.Cause }

// FilterEvaluationError reports an inclusion filter that failed on a line.
type FilterEvaluationError struct {
	Line  string
	Cause error
}

func (e *FilterEvaluationError) Error() string {
	return fmt.Sprintf("filter failed on line %q: %v", e.Line, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *FilterEvaluationError) Unwrap() error { return e.Cause }

// ResolutionError wraps a failure returned by the impact resolver.
type ResolutionError struct {
	EntryPoint string
	SearchDir  string
	Cause      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving related tests from %s: %v", e.EntryPoint, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// newConfigError builds a ConfigurationError from a cause.
func newConfigError(field string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: err.Error(), Err: err}
}
