// Package errors provides structured error types for flowsketch.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - MISSING_*, COMPLETION_*: Generation collaborator failures
//   - INTERNAL_*: Unexpected internal errors
//
// The three codes that the generation pipeline treats specially are
// [ErrCodeSchema] (fatal on import), [ErrCodeUnsupportedShape] (fatal on
// import) and [ErrCodeMissingCredential] (always surfaced).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchema, "too many nodes: %d", n)
//	if errors.Is(err, errors.ErrCodeSchema) {
//	    // Reject the import
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCompletion, origErr, "completion request")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeSchema           Code = "INVALID_SCHEMA"
	ErrCodeUnsupportedShape Code = "UNSUPPORTED_SHAPE"
	ErrCodeInvalidEdit      Code = "INVALID_EDIT"
	ErrCodeInvalidLayout    Code = "INVALID_LAYOUT"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"

	// Generation collaborator errors
	ErrCodeMissingCredential Code = "MISSING_CREDENTIAL"
	ErrCodeCompletion        Code = "COMPLETION_FAILED"
	ErrCodeTimeout           Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
	// Violations lists individual schema failures, one per offending
	// instance location. Only set for ErrCodeSchema.
	Violations []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Schema creates an ErrCodeSchema error carrying the individual violations.
func Schema(violations []string) *Error {
	msg := "document violates schema"
	switch len(violations) {
	case 0:
	case 1:
		msg = violations[0]
	default:
		msg = fmt.Sprintf("document violates schema with %d errors", len(violations))
	}
	return &Error{Code: ErrCodeSchema, Message: msg, Violations: violations}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the server responds with.
// Errors without a code map to 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidEdit, ErrCodeInvalidLayout:
		return http.StatusBadRequest
	case ErrCodeSchema:
		return http.StatusUnprocessableEntity
	case ErrCodeUnsupportedShape:
		return http.StatusUnsupportedMediaType
	case ErrCodeNotFound, ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case ErrCodeMissingCredential:
		return http.StatusServiceUnavailable
	case ErrCodeCompletion:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
