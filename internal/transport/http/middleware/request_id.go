package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chirpnet/chirp-auth/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates a correlation id: an inbound X-Request-ID value is
// reused, otherwise a fresh UUID is minted. The id rides on the response
// header and in the request context for the access logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
