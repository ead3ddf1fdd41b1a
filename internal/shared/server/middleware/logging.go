package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/metrics"
	"clinical-backend/internal/shared/telemetry"
)

// Logging emits a structured log line and request metrics per request.
// handler is the application handler name the host resolved.
func Logging(handler string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"handler":     handler,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if provider := c.GetString("provider"); provider != "" {
			fields["provider"] = provider
		}
		telemetry.Info("request.complete", fields)
	}
}
