// Package domain defines the core entities of the users/posts API and the
// error model every other layer raises into.
package domain

import (
	"fmt"
	"net/http"
)

// Error is a business-rule failure carrying the HTTP status it maps to.
//
// Values are immutable once constructed: the fields are unexported and only
// readable through accessors. The error translator in the HTTP layer is the
// only consumer that inspects the status.
type Error struct {
	message    string
	statusCode int
}

// NewError constructs an Error with the given message and status code.
func NewError(message string, statusCode int) *Error {
	return &Error{message: message, statusCode: statusCode}
}

// Error implements the error interface.
func (e *Error) Error() string { return e.message }

// Message returns the client-safe message.
func (e *Error) Message() string { return e.message }

// StatusCode returns the HTTP status associated with the failure.
func (e *Error) StatusCode() int { return e.statusCode }

// BadRequest returns a 400 Error.
func BadRequest(message string) *Error { return NewError(message, http.StatusBadRequest) }

// Unauthorized returns a 401 Error.
func Unauthorized(message string) *Error { return NewError(message, http.StatusUnauthorized) }

// Forbidden returns a 403 Error.
func Forbidden(message string) *Error { return NewError(message, http.StatusForbidden) }

// NotFound returns a 404 Error for the named resource, e.g. "User not found".
func NotFound(resource string) *Error {
	return NewError(resource+" not found", http.StatusNotFound)
}

// TooManyRequests returns a 429 Error.
func TooManyRequests(message string) *Error {
	return NewError(message, http.StatusTooManyRequests)
}

// ValidationError reports that a model failed its schema checks right before
// being written to the store.
type ValidationError struct {
	Model   string
	Field   string
	Message string
}

// Error renders "<Model> validation failed: <field>: <message>".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s: %s", e.Model, e.Field, e.Message)
}
