// Package errors provides standardized domain errors with codes for the PageTagz API.
//
// The codes are the exact strings clients branch on in the response
// envelope's error.code field. Handlers map them to HTTP statuses via
// HTTPStatus; services create them with the constructors below.
//
// Usage:
//
//	// In services - return typed errors
//	if nameTaken {
//	    return errors.DuplicateTag("a tag with this name already exists")
//	}
//
//	// In handlers / clients - branch on the code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) && domainErr.Code == errors.CodeDuplicateTag {
//	    // surface as a field-level form error
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// Code identifies an error category in the API envelope.
type Code string

// Error codes consumed by clients.
const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeDuplicateTag      Code = "DUPLICATE_TAG"
	CodeDuplicateBookmark Code = "DUPLICATE_BOOKMARK"
	CodeTagNotFound       Code = "TAG_NOT_FOUND"
	CodeBookmarkNotFound  Code = "BOOKMARK_NOT_FOUND"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeCaptureFailed     Code = "CAPTURE_FAILED"
	CodeDatabase          Code = "DATABASE_ERROR"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeTagNotFound, CodeBookmarkNotFound:
		return http.StatusNotFound
	case CodeDuplicateTag, CodeDuplicateBookmark:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeCaptureFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// CodeOf extracts the domain code from an error chain.
// Returns CodeDatabase for errors that carry no code; unknown failures
// surface to clients as the generic server-side category.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeDatabase
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrDuplicateTag      = &Error{Code: CodeDuplicateTag, Message: "tag already exists"}
	ErrDuplicateBookmark = &Error{Code: CodeDuplicateBookmark, Message: "bookmark already exists"}
	ErrTagNotFound       = &Error{Code: CodeTagNotFound, Message: "tag not found"}
	ErrBookmarkNotFound  = &Error{Code: CodeBookmarkNotFound, Message: "bookmark not found"}
	ErrRateLimited       = &Error{Code: CodeRateLimited, Message: "too many requests"}
)

// Constructor functions for creating errors with custom messages.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error carrying per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// DuplicateTag creates a duplicate tag error.
func DuplicateTag(msg string) *Error {
	return &Error{Code: CodeDuplicateTag, Message: msg}
}

// DuplicateBookmark creates a duplicate bookmark error.
func DuplicateBookmark(msg string) *Error {
	return &Error{Code: CodeDuplicateBookmark, Message: msg}
}

// TagNotFound creates a tag not found error.
func TagNotFound(msg string) *Error {
	return &Error{Code: CodeTagNotFound, Message: msg}
}

// BookmarkNotFound creates a bookmark not found error.
func BookmarkNotFound(msg string) *Error {
	return &Error{Code: CodeBookmarkNotFound, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// CaptureFailed creates a page-capture error wrapping the fetch failure.
func CaptureFailed(msg string, cause error) *Error {
	return &Error{Code: CodeCaptureFailed, Message: msg, cause: cause}
}

// Database creates a database error wrapping the underlying failure.
func Database(msg string, cause error) *Error {
	return &Error{Code: CodeDatabase, Message: msg, cause: cause}
}
