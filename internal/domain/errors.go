package domain

import (
	"fmt"
	"strings"
)

// InvalidParameterError reports malformed simulation input. It is returned before any simulation starts.
type InvalidParameterError struct {
	Field   string
	Message string
}

func (e *InvalidParameterError) Error() string {
	return "invalid parameter " + e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *InvalidParameterError {
	return &InvalidParameterError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SimulationRuntimeError is an unexpected numeric failure inside one scenario
type SimulationRuntimeError struct {
	Scenario int
	Year     int
	Message  string
}

func (e *SimulationRuntimeError) Error() string {
	return fmt.Sprintf("scenario %d year %d: %s", e.Scenario, e.Year, e.Message)
}

// WorkerFailure records a scenario task that crashed, timed out or returned an error
type WorkerFailure struct {
	Scenario int
	Seed     int64
	Attempts int
	Cause    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("scenario %d (seed %d) failed after %d attempt(s): %v", e.Scenario, e.Seed, e.Attempts, e.Cause)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Cause
}

// RunError is a fatal orchestration failure. Failures carries every scenario that could not be completed.
type RunError struct {
	RunID    string
	Message  string
	Failures []*WorkerFailure
	Cause    error
}

func (e *RunError) Error() string {
	var sb strings.Builder
	sb.WriteString("monte carlo run")
	if e.RunID != "" {
		sb.WriteString(" " + e.RunID)
	}
	sb.WriteString(": " + e.Message)
	if e.Cause != nil {
		sb.WriteString(": " + e.Cause.Error())
	}
	if n := len(e.Failures); n > 0 {
		fmt.Fprintf(&sb, " (%d failed scenario(s); first: %v)", n, e.Failures[0])
	}
	return sb.String()
}

// Unwrap exposes the cause and every worker failure to errors.Is / errors.As
func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
