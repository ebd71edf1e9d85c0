package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"hilop/pkg/utils"
)

var (
	// ErrConnection means the backend could not be reached at all.
	ErrConnection = utils.NewHTTPError(http.StatusBadGateway, "connection_error")
	ErrMalformed  = utils.NewHTTPError(http.StatusBadGateway, "malformed backend response")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Operation string
	Status    int
	Message   string
	Body      []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: status %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: status %d", e.Operation, e.Status)
}

// HTTPStatus passes client errors through and reports everything else as
// a gateway failure.
func (e *StatusError) HTTPStatus() int {
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusBadGateway
}

func (e *StatusError) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.HTTPStatus())
}

var messagePaths = []string{"message", "error.message", "error", "detail", "data.message"}

// MessageFrom pulls a human readable message out of a backend error body.
func MessageFrom(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range messagePaths {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// UserMessage returns the backend's message for err, or fallback.
func UserMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
