package errors

import (
	stderrors "errors"
	"fmt"
)

// TypemapError is the structured error type for typemap.
// It carries enough context for logging, report entries and CLI output.
type TypemapError struct {
	// Code is the unique error code (e.g., "ERR_202_NO_MATCHING_DRIVER").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is checks. Matching is by code, so any error built
// with the same code matches regardless of message.
var (
	ErrIndexNotConfigured = &TypemapError{Code: ErrCodeIndexNotConfigured}
	ErrNoMatchingDriver   = &TypemapError{Code: ErrCodeNoMatchingDriver}
	ErrOutOfOrder         = &TypemapError{Code: ErrCodeEntryOutOfOrder}
	ErrNestedTooLarge     = &TypemapError{Code: ErrCodeNestedTooLarge}
	ErrExtractFailed      = &TypemapError{Code: ErrCodeExtractFailed}
)

// Error implements the error interface.
func (e *TypemapError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TypemapError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *TypemapError) Is(target error) bool {
	if t, ok := target.(*TypemapError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *TypemapError) WithDetail(key, value string) *TypemapError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *TypemapError) WithSuggestion(suggestion string) *TypemapError {
	e.Suggestion = suggestion
	return e
}

// New creates a new TypemapError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *TypemapError {
	return &TypemapError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code string, format string, args ...any) *TypemapError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a TypemapError from an existing error.
func Wrap(code string, err error) *TypemapError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TypemapError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *TypemapError {
	return New(ErrCodeEntryRead, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *TypemapError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TypemapError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal reports whether err (or anything it wraps) has fatal severity.
func IsFatal(err error) bool {
	var te *TypemapError
	if stderrors.As(err, &te) {
		return te.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first TypemapError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var te *TypemapError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category from the first TypemapError in the chain.
func GetCategory(err error) Category {
	var te *TypemapError
	if stderrors.As(err, &te) {
		return te.Category
	}
	return ""
}
