package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeMalformedConfig = "CONFIG_MALFORMED"
	ErrCodeUnknownStep     = "STEP_UNKNOWN"
	ErrCodeInvalidArgument = "ARGUMENT_INVALID"
	ErrCodeStepExecution   = "STEP_EXECUTION"
)

// Error represents a pipeline error with a code and actionable suggestion.
type Error struct {
	Code       string // Error code for categorization (e.g., "STEP_UNKNOWN")
	Message    string // User-friendly error message
	Context    string // File path, step name, or other location context
	Suggestion string // Actionable suggestion to fix the error
	StepIndex  int    // Index of the failing step (STEP_EXECUTION only)
	StepName   string // Name of the failing step (STEP_EXECUTION only)
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}

	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *Error) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// WithContext returns a copy of the error with context set.
func (e *Error) WithContext(ctx string) *Error {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithSuggestion returns a copy of the error with suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// NewMalformedConfigError creates an error for a descriptor or config file
// that does not have the expected shape.
func NewMalformedConfigError(message string) *Error {
	return &Error{
		Code:       ErrCodeMalformedConfig,
		Message:    message,
		Suggestion: "Each pipeline entry must be a mapping with exactly one key: the step name, mapped to its arguments (or null).",
	}
}

// NewConfigParseError creates an error for an unreadable or unparseable config file.
func NewConfigParseError(path string, err error) *Error {
	return &Error{
		Code:       ErrCodeMalformedConfig,
		Message:    "failed to load pipeline configuration",
		Context:    path,
		Suggestion: "Check the file exists and contains a top-level 'pipeline' key with a list of steps.",
		Underlying: err,
	}
}

// NewUnknownStepError creates an error for a step name that does not resolve
// to a registered step.
func NewUnknownStepError(name string, known []string) *Error {
	suggestion := "Register the step before constructing the pipeline."
	if len(known) > 0 {
		suggestion = fmt.Sprintf("Registered steps: %s", strings.Join(known, ", "))
	}
	return &Error{
		Code:       ErrCodeUnknownStep,
		Message:    fmt.Sprintf("unknown step %q", name),
		Context:    name,
		Suggestion: suggestion,
	}
}

// NewInvalidArgumentError creates an error for an argument/parameter mismatch.
func NewInvalidArgumentError(step, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("invalid arguments for step %q: %s", step, message),
		Context: step,
	}
}

// NewStepExecutionError wraps a failure raised by a step during invocation,
// identifying the failing step's index and name.
func NewStepExecutionError(index int, name string, err error) *Error {
	return &Error{
		Code:       ErrCodeStepExecution,
		Message:    fmt.Sprintf("step %d (%s) failed", index, name),
		Context:    fmt.Sprintf("step %d", index),
		StepIndex:  index,
		StepName:   name,
		Underlying: err,
	}
}

// IsCode checks if an error is a pipeline Error with a specific code.
func IsCode(err error, code string) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// AsError extracts a pipeline Error from an error chain, if present.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}
