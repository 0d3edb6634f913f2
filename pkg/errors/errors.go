// Package errors provides structured error types for Landscape.
//
// Every error that crosses a package boundary in the fetch, pipeline, config
// and server layers carries a [Code] so the CLI and the HTTP server can map it
// to an exit status or a response without string matching.
//
// # Error Codes
//
//   - INVALID_*: input that failed validation (snapshots, positions, config)
//   - NOT_FOUND / UNAVAILABLE: the projection service has nothing to return
//   - FETCH_FAILED: transport level failure talking to the service
//   - RENDER_FAILED / CACHE_FAILED: local output and cache failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown position: %s", pos)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeFetchFailed, origErr, "fetching %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPosition Code = "INVALID_POSITION"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Data availability
	ErrCodeInsufficientData Code = "INSUFFICIENT_DATA"
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeViewNotFound     Code = "VIEW_NOT_FOUND"
	ErrCodeUnavailable      Code = "UNAVAILABLE"

	// Upstream errors
	ErrCodeFetchFailed Code = "FETCH_FAILED"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Local failures
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeCacheFailed  Code = "CACHE_FAILED"
	ErrCodeCancelled    Code = "CANCELLED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As is errors.As from the standard library.
func As(err error, target any) bool { return errors.As(err, target) }

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

// HTTPStatus maps an error code to the status the server responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidSnapshot, ErrCodeInvalidFormat,
		ErrCodeInvalidPosition, ErrCodeInvalidConfig:
		return 400
	case ErrCodeNotFound, ErrCodeViewNotFound:
		return 404
	case ErrCodeInsufficientData:
		return 422
	case ErrCodeRateLimited:
		return 429
	case ErrCodeUnavailable, ErrCodeFetchFailed:
		return 502
	case ErrCodeTimeout:
		return 504
	default:
		return 500
	}
}

// StatusError is returned by the projection service client for non-2xx
// responses.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Code returns the error code for this status.
func (e *StatusError) Code() Code {
	switch {
	case e.StatusCode == 404:
		return ErrCodeNotFound
	case e.StatusCode == 429:
		return ErrCodeRateLimited
	case e.StatusCode >= 500:
		return ErrCodeUnavailable
	default:
		return ErrCodeFetchFailed
	}
}
