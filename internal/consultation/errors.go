package consultation

import (
	"errors"
	"fmt"
	"net/http"

	"hilop/internal/backend"
	"hilop/pkg/utils"
)

const (
	msgFetchFailed    = "Failed to load questions"
	msgSubmitFailed   = "Failed to submit answer"
	msgCompleteFailed = "Failed to complete the consultation. Please try again."
	msgCartFailed     = "Could not add the recommended product to your cart"
)

var (
	ErrFlowNotFound     = utils.NewHTTPError(http.StatusNotFound, "consultation flow not found")
	ErrBusy             = utils.NewHTTPError(http.StatusConflict, "an answer is still being submitted")
	ErrStale            = utils.NewHTTPError(http.StatusConflict, "the consultation moved on before the response arrived")
	ErrClosed           = utils.NewHTTPError(http.StatusGone, "consultation flow closed")
	ErrInvalidState     = utils.NewHTTPError(http.StatusConflict, "not allowed at this step of the consultation")
	ErrInvalidAnswer    = utils.NewHTTPError(http.StatusBadRequest, "answer does not belong to the current question")
	ErrMissingTest      = utils.NewHTTPError(http.StatusBadRequest, "test id is required")
	ErrAlreadyCompleted = utils.NewHTTPError(http.StatusConflict, "consultation already completed")
)

// upstreamStatus keeps backend client errors (4xx) and reports the rest as 502.
func upstreamStatus(err error) int {
	var he utils.HTTPError
	if errors.As(err, &he) && he.HTTPStatus() < http.StatusInternalServerError {
		return he.HTTPStatus()
	}
	return http.StatusBadGateway
}

// FetchError is a failed or empty question list; it ends the view until reload.
type FetchError struct {
	TestID  backend.ID
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch questions for test %s: %v", e.TestID, e.Err)
}
func (e *FetchError) Unwrap() error         { return e.Err }
func (e *FetchError) HTTPStatus() int       { return upstreamStatus(e.Err) }
func (e *FetchError) PublicMessage() string { return e.Message }

// SubmissionError is a failed submit-answer or complete-test call. The flow
// stays on the same question.
type SubmissionError struct {
	Op      string
	Message string
	Err     error
}

func (e *SubmissionError) Error() string         { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *SubmissionError) Unwrap() error         { return e.Err }
func (e *SubmissionError) HTTPStatus() int       { return upstreamStatus(e.Err) }
func (e *SubmissionError) PublicMessage() string { return e.Message }

// CartError halts the success path after completion.
type CartError struct {
	ProductID backend.ID
	Message   string
	Err       error
}

func (e *CartError) Error() string {
	return fmt.Sprintf("add product %s to cart: %v", e.ProductID, e.Err)
}
func (e *CartError) Unwrap() error         { return e.Err }
func (e *CartError) HTTPStatus() int       { return upstreamStatus(e.Err) }
func (e *CartError) PublicMessage() string { return e.Message }
