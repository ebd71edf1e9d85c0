package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hilop/internal/backend"
)

const TraceIDHeader = "X-Trace-ID"

// TraceIDMiddleware keeps a well-formed incoming trace id, otherwise mints
// one, and hands it on to backend calls made with the request context.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Set("trace_id", traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(backend.ContextWithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
