package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDHeader carries the trace ID between services.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the Gin context key holding the trace ID.
	TraceIDKey = "trace_id"
	// UserIDKey is the Gin context key holding the authenticated user ID.
	UserIDKey = "user_id"

	requestContextKey = "request_context"
)

// RequestContext carries per-request metadata for logging and auditing.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext assigns each request a trace ID and captures client
// metadata. An inbound X-Trace-ID header is honored so traces survive
// hops through upstream proxies.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID returns the request's trace ID, or "" before EnrichContext ran.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// GetRequestContext returns the request metadata. The result is never nil;
// outside an enriched request it is a zero value.
func GetRequestContext(c *gin.Context) *RequestContext {
	if value, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := value.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}
