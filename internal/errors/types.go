// Package errors defines the typed errors surfaced by docindex operations.
//
// Every error that a caller can fix (bad sample, bad pattern, missing upload,
// a table without enough columns, ...) carries a client ErrorType and a
// message that is safe to show. Anything else is treated as internal.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a docindex error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMalformedSample
	ErrorTypeInvalidPattern
	ErrorTypeNoMatch
	ErrorTypeMissingInput
	ErrorTypeInvalidDocument
	ErrorTypeInsufficientColumns
	ErrorTypeInvalidPageRange
	ErrorTypeFileTooLarge
	ErrorTypeUnknownTask
	ErrorTypeInternal
)

// Error is a docindex error with a category and a caller-facing message
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type.String(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeMalformedSample:
		return "MALFORMED_SAMPLE"
	case ErrorTypeInvalidPattern:
		return "INVALID_PATTERN"
	case ErrorTypeNoMatch:
		return "NO_MATCH"
	case ErrorTypeMissingInput:
		return "MISSING_INPUT"
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeInsufficientColumns:
		return "INSUFFICIENT_COLUMNS"
	case ErrorTypeInvalidPageRange:
		return "INVALID_PAGE_RANGE"
	case ErrorTypeFileTooLarge:
		return "FILE_TOO_LARGE"
	case ErrorTypeUnknownTask:
		return "UNKNOWN_TASK"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// IsClientError reports whether errors of this type are caused by caller input
func (et ErrorType) IsClientError() bool {
	switch et {
	case ErrorTypeMalformedSample, ErrorTypeInvalidPattern, ErrorTypeNoMatch,
		ErrorTypeMissingInput, ErrorTypeInvalidDocument, ErrorTypeInsufficientColumns,
		ErrorTypeInvalidPageRange, ErrorTypeFileTooLarge, ErrorTypeUnknownTask:
		return true
	default:
		return false
	}
}

// New creates a new Error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates a new Error with a formatted message
func Newf(errorType ErrorType, format string, args ...any) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error that keeps err as its cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the ErrorType of the first *Error in err's chain,
// or ErrorTypeUnknown when there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsClientError reports whether err was caused by caller input
func IsClientError(err error) bool {
	return TypeOf(err).IsClientError()
}

// Is reports whether err carries the given ErrorType
func Is(err error, errorType ErrorType) bool {
	return TypeOf(err) == errorType
}

// MessageOf returns the caller-facing message of err. Internal errors never
// expose their cause; fallback is returned for them instead.
func MessageOf(err error, fallback string) string {
	var e *Error
	if stderrors.As(err, &e) && e.Type.IsClientError() {
		return e.Message
	}
	return fallback
}
