package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondStatus(c, http.StatusOK, data, message)
}

func RespondStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	RespondErrorWithData(c, code, message, nil)
}

func RespondErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// HandleServiceError renders err; data (optional) is attached to errors
// that do not carry their own payload.
func HandleServiceError(c *gin.Context, err error, data ...interface{}) {
	var payload interface{}
	if len(data) > 0 {
		payload = data[0]
	}

	var fe FieldErrors
	if errors.As(err, &fe) {
		RespondErrorWithData(c, http.StatusUnprocessableEntity, "Validation failed", gin.H{"fields": fe.FieldMessages()})
		return
	}

	var he HTTPError
	if errors.As(err, &he) {
		if he.HTTPStatus() >= http.StatusInternalServerError {
			Logger(c).Warn("upstream failure", zap.Error(err))
		}
		RespondErrorWithData(c, he.HTTPStatus(), he.PublicMessage(), payload)
		return
	}

	Logger(c).Error("unhandled service error", zap.Error(err))
	RespondErrorWithData(c, http.StatusInternalServerError, "Internal server error", payload)
}

// Logger returns the request-scoped logger set by the logging middleware.
func Logger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}
