// Package apperror defines the application error taxonomy and its mapping to
// HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an application error.
type Type int

const (
	// Internal covers unexpected failures that surface as 500s.
	Internal Type = iota
	// Validation covers malformed input and uniqueness violations.
	Validation
	// Auth covers credential mismatches.
	Auth
	// Token covers invalid or expired password-reset tokens.
	Token
	// NotFound covers missing resources.
	NotFound
	// Database covers persistence failures.
	Database
)

// Error carries a user-facing message, a classification, and an optional cause.
type Error struct {
	Type    Type
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Type {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Token:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewValidation builds a Validation error.
func NewValidation(message string, err error) *Error {
	return &Error{Type: Validation, Message: message, Err: err}
}

// NewAuth builds an Auth error.
func NewAuth(message string, err error) *Error {
	return &Error{Type: Auth, Message: message, Err: err}
}

// NewToken builds a Token error.
func NewToken(message string, err error) *Error {
	return &Error{Type: Token, Message: message, Err: err}
}

// NewNotFound builds a NotFound error.
func NewNotFound(message string, err error) *Error {
	return &Error{Type: NotFound, Message: message, Err: err}
}

// NewDatabase builds a Database error.
func NewDatabase(message string, err error) *Error {
	return &Error{Type: Database, Message: message, Err: err}
}

// NewInternal builds an Internal error.
func NewInternal(message string, err error) *Error {
	return &Error{Type: Internal, Message: message, Err: err}
}

// IsType reports whether err (or anything it wraps) is an *Error of type t.
func IsType(err error, t Type) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Type == t
}

// Message returns the user-facing message for err, falling back to a generic
// one for errors outside the taxonomy so internal details never leak.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong"
}

// StatusCode returns the HTTP status for err, 500 for unclassified errors.
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
