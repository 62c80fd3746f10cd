// Package apperr defines the application error taxonomy. Every error that
// reaches the HTTP boundary is (or is converted to) an *Error carrying a
// stable machine-readable code and the HTTP status it maps to.
//
// Services return typed errors:
//
//	if taken {
//	    return apperr.Conflict("a user with that username already exists")
//	}
//
// and callers match them by code:
//
//	if errors.Is(err, apperr.ErrRevokedToken) { ... }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code rendered in the "error" field.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeCrossStore         Code = "cross_store"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeMissingToken       Code = "authorization_required"
	CodeInvalidToken       Code = "invalid_token"
	CodeExpiredToken       Code = "token_expired"
	CodeRevokedToken       Code = "token_revoked"
	CodeFreshTokenRequired Code = "fresh_token_required"
	CodeInternal           Code = "internal_error"
	CodeMethodNotAllowed   Code = "method_not_allowed"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeCrossStore:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidCredentials, CodeMissingToken, CodeInvalidToken,
		CodeExpiredToken, CodeRevokedToken, CodeFreshTokenRequired:
		return http.StatusUnauthorized
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a code, message and optional details.
type Error struct {
	Code    Code   `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
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

// Is reports whether target is an *Error with the same Code.
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

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinels for errors.Is matching.
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrMissingToken       = &Error{Code: CodeMissingToken, Message: "request does not contain an access token"}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Message: "signature verification failed"}
	ErrExpiredToken       = &Error{Code: CodeExpiredToken, Message: "the token has expired"}
	ErrRevokedToken       = &Error{Code: CodeRevokedToken, Message: "the token has been revoked"}
	ErrFreshTokenRequired = &Error{Code: CodeFreshTokenRequired, Message: "the token is not fresh"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// CrossStore creates a cross-store link error.
func CrossStore(msg string) *Error {
	return &Error{Code: CodeCrossStore, Message: msg}
}

// InvalidToken creates an invalid token error wrapping the parse failure.
func InvalidToken(cause error) *Error {
	return ErrInvalidToken.WithCause(cause)
}

// Internal creates an internal error. The cause is kept for logging and
// never rendered to clients.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}

// From converts any error into an *Error. Unknown errors become internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("an unexpected error occurred", err)
}
