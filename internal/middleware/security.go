package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/pkg/config"
)

// developmentOrigins are accepted in development when ALLOWED_ORIGINS is unset
var developmentOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8080",
}

// SecurityHeadersMiddleware adds API security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing. Configured origins
// always apply; development additionally accepts localhost.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, origin := range cfg.GetAllowedOrigins() {
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	if cfg.IsDevelopment() && len(allowed) == 0 {
		for _, origin := range developmentOrigins {
			allowed[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

var blockedAgents = []string{"sqlmap", "nikto", "masscan", "<script", "javascript:"}

// InputValidationMiddleware caps request bodies at maxBytes, requires JSON
// bodies and rejects known scanner user agents
func InputValidationMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		agent := strings.ToLower(c.Request.UserAgent())
		for _, pattern := range blockedAgents {
			if strings.Contains(agent, pattern) {
				abortWith(c, http.StatusForbidden, "Request blocked", "REQUEST_BLOCKED")
				return
			}
		}

		hasBody := c.Request.ContentLength > 0 || len(c.Request.TransferEncoding) > 0
		if hasBody && (c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut) {
			contentType := c.ContentType()
			if contentType == "" {
				abortWith(c, http.StatusBadRequest, "Content-Type header is required", errors.ErrCodeInvalidInput)
				return
			}
			if contentType != gin.MIMEJSON {
				abortWith(c, http.StatusUnsupportedMediaType, "Unsupported content type", errors.ErrCodeInvalidInput)
				return
			}
		}

		c.Next()
	}
}

func abortWith(c *gin.Context, status int, message string, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
