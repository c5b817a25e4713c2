// Package errors provides structured error types for the astroboard client.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the fetch client, the resource store and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for terminal panels
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NETWORK_*, TIMEOUT, RATE_LIMITED: Transport failures
//   - HTTP_ERROR, UNAUTHORIZED, FORBIDDEN, NOT_FOUND: Non-success HTTP statuses
//   - DECODE_ERROR: Malformed response bodies
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPath, "path must start with /api/: %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidPath) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", endpoint)
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidURL   Code = "INVALID_URL"
	ErrCodeInvalidMode  Code = "INVALID_MODE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Transport errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Response errors
	ErrCodeHTTP    Code = "HTTP_ERROR"
	ErrCodeDecode  Code = "DECODE_ERROR"
	ErrCodePending Code = "PENDING"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code       Code   // Machine-readable error code
	Message    string // Human-readable message
	Cause      error  // Underlying error (optional)
	StatusCode int    // HTTP status, 0 when no response was received
	Endpoint   string // Request URL the error relates to (optional)
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

// WithEndpoint sets the endpoint and returns e for chaining.
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// FromStatus builds the error for a non-success HTTP response.
// The message includes the status line and the endpoint; detail, when
// non-empty, is the server-provided error text.
func FromStatus(statusCode int, status, endpoint, detail string) *Error {
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	msg := fmt.Sprintf("%s from %s", status, endpoint)
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{
		Code:       codeForStatus(statusCode),
		Message:    msg,
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

func codeForStatus(statusCode int) Code {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	default:
		return ErrCodeHTTP
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

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
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

// IsTimeout reports whether err is a deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
