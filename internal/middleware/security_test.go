package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/pkg/config"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.Any("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})
	return router
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := newRouter(SecurityHeadersMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		origin      string
		shouldAllow bool
	}{
		{"development localhost", &config.Config{Environment: "development"}, "http://localhost:3000", true},
		{"development unknown origin", &config.Config{Environment: "development"}, "https://malicious-site.com", false},
		{"production configured origin", &config.Config{Environment: "production", AllowedOrigins: "https://app.example.com, https://ops.example.com"}, "https://ops.example.com", true},
		{"production localhost", &config.Config{Environment: "production"}, "http://localhost:3000", false},
		{"development with configured origins", &config.Config{Environment: "development", AllowedOrigins: "https://app.example.com"}, "http://localhost:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(CORSMiddleware(tt.cfg))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if tt.shouldAllow {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestCORSMiddleware_PreflightRequest(t *testing.T) {
	router := newRouter(CORSMiddleware(&config.Config{Environment: "development"}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestInputValidationMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		contentType    string
		userAgent      string
		expectedStatus int
		expectedError  string
	}{
		{"json body", http.MethodPost, `{"a":1}`, "application/json; charset=utf-8", "curl/8.0", http.StatusOK, ""},
		{"post without body", http.MethodPost, "", "", "curl/8.0", http.StatusOK, ""},
		{"body without content type", http.MethodPost, `{"a":1}`, "", "curl/8.0", http.StatusBadRequest, "Content-Type header is required"},
		{"form body", http.MethodPost, "a=1", "application/x-www-form-urlencoded", "curl/8.0", http.StatusUnsupportedMediaType, "Unsupported content type"},
		{"get without user agent", http.MethodGet, "", "", "", http.StatusOK, ""},
		{"sqlmap", http.MethodGet, "", "", "sqlmap/1.4.9", http.StatusForbidden, "REQUEST_BLOCKED"},
		{"script tag", http.MethodGet, "", "", "Mozilla <script>alert('x')</script>", http.StatusForbidden, "REQUEST_BLOCKED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(InputValidationMiddleware(1024))

			req := httptest.NewRequest(tt.method, "/test", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestInputValidationMiddleware_BodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InputValidationMiddleware(16))
	router.POST("/test", func(c *gin.Context) {
		var payload map[string]interface{}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payload)
	})

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"entity_id": "a-very-long-entity-identifier"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(3, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "clients are limited independently")

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"), "bucket refilled")

	now = now.Add(time.Hour)
	limiter.Allow("10.0.0.3")
	assert.NotContains(t, limiter.clients, "10.0.0.2", "idle clients are swept")
}

func TestRateLimitingMiddleware(t *testing.T) {
	router := newRouter(RateLimitingMiddleware(5))

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		if i < 5 {
			assert.Equal(t, http.StatusOK, last.Code)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(LoggingMiddleware(logger.New(&buf, "debug")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	out := buf.String()
	assert.Contains(t, out, "Request served")
	assert.Contains(t, out, "path=/test")
	assert.Contains(t, out, "Request rejected")
	assert.Contains(t, out, "status=404")
}
