package checkpoint

import (
	"errors"
	"fmt"
)

// Error codes for categorization.
const (
	ErrCodeNotFound = "CHECKPOINT_NOT_FOUND"
	ErrCodeCorrupt  = "CHECKPOINT_CORRUPT"
)

// Error represents a checkpoint persistence error.
type Error struct {
	Code       string
	Message    string
	Context    string
	Underlying error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
	}
	return e.Message
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

// NewNotFoundError creates an error for a missing checkpoint.
func NewNotFoundError(name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("checkpoint %q not found", name),
		Context: name,
	}
}

// NewCorruptError creates an error for a checkpoint that cannot be decoded.
func NewCorruptError(name string, err error) *Error {
	return &Error{
		Code:       ErrCodeCorrupt,
		Message:    fmt.Sprintf("checkpoint %q is corrupt", name),
		Context:    name,
		Underlying: err,
	}
}

// IsNotFound reports whether err is a missing-checkpoint error.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeNotFound
}

// IsCorrupt reports whether err is a corrupt-checkpoint error.
func IsCorrupt(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeCorrupt
}
