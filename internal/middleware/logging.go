package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/metrics"
)

// LoggingMiddleware logs each request and records its latency
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, status, latency)

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Warn("Request failed", fields...)
		case status >= 400:
			log.Info("Request rejected", fields...)
		default:
			log.Debug("Request served", fields...)
		}
	}
}
