package errors

import (
	"errors"
	"fmt"
)

// RAGError is the structured error type for the retrieval engine.
// It carries a stable code so callers and tests can assert on failure
// classes without string matching.
type RAGError struct {
	// Code is the unique error code (e.g., "ERR_401_EMPTY_QUESTION").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category derived from the code.
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *RAGError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RAGError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapped instances.
func (e *RAGError) Is(target error) bool {
	if t, ok := target.(*RAGError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *RAGError) WithDetail(key, value string) *RAGError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a RAGError with the given code and message.
// Category and retryable flag are derived from the code.
func New(code, message string) *RAGError {
	return &RAGError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RAGError from an existing error. Returns nil for nil err.
func Wrap(code string, err error) *RAGError {
	if err == nil {
		return nil
	}
	e := New(code, err.Error())
	e.Cause = err
	return e
}

// Wrapf creates a RAGError with a formatted message wrapping err.
func Wrapf(code string, err error, format string, args ...any) *RAGError {
	e := New(code, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// ValidationError creates a caller-input error. These are rejected
// immediately and never retried.
func ValidationError(message string) *RAGError {
	return New(ErrCodeInvalidInput, message)
}

// OracleError creates an oracle-dependency error.
func OracleError(message string, cause error) *RAGError {
	e := New(ErrCodeOracleUnavailable, message)
	e.Cause = cause
	return e
}

// IsRetryable reports whether err (or anything it wraps) is retryable.
func IsRetryable(err error) bool {
	var re *RAGError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CodeOf returns the code of err if it is a RAGError, or "" otherwise.
func CodeOf(err error) string {
	var re *RAGError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
