package utils

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by errors that know how they should be
// reported to the caller.
type HTTPError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

// FieldErrors is implemented by validation errors with per-field messages.
type FieldErrors interface {
	error
	FieldMessages() map[string]string
}

type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string         { return e.msg }
func (e *statusError) HTTPStatus() int       { return e.status }
func (e *statusError) PublicMessage() string { return e.msg }

// NewHTTPError returns a sentinel that compares by identity with errors.Is.
func NewHTTPError(status int, msg string) error {
	return &statusError{status: status, msg: msg}
}

var (
	ErrUnauthorized   = NewHTTPError(http.StatusUnauthorized, "authentication required")
	ErrInvalidToken   = NewHTTPError(http.StatusUnauthorized, "invalid session token")
	ErrSessionExpired = NewHTTPError(http.StatusUnauthorized, "session expired")
	ErrInvalidInput   = NewHTTPError(http.StatusBadRequest, "invalid input")
	ErrRateLimited    = NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// StatusOf returns the HTTP status err maps to, 500 when unknown.
func StatusOf(err error) int {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.HTTPStatus()
	}
	return http.StatusInternalServerError
}
