package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const idleClientTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket limiter
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows limit requests per client within window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		window:  window,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	client, ok := r.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than idleClientTTL
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < idleClientTTL {
		return
	}
	for key, client := range r.clients {
		if now.Sub(client.lastSeen) > idleClientTTL {
			delete(r.clients, key)
		}
	}
	r.lastSweep = now
}

// Middleware rejects clients over the limit with 429
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(r.window.Seconds()))
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			abortWith(c, http.StatusTooManyRequests, "Rate limit exceeded", "RATE_LIMITED")
			return
		}
		c.Next()
	}
}

// RateLimitingMiddleware limits each client IP to perMinute requests
func RateLimitingMiddleware(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(perMinute, time.Minute).Middleware()
}
