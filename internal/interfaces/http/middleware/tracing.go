package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server middleware followed by span enrichment.
// Register it before RequestID and JWT so their values land on the span.
func Tracing(serviceName string, enabled bool) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		enrichSpan(),
	}
}

// enrichSpan runs the rest of the chain and then tags the server span with the
// request ID, the authenticated user and an error status for 4xx/5xx answers.
func enrichSpan() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if userID := GetJWTUserID(c); userID != "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, userID))
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "Internal Server Error")
		} else {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
