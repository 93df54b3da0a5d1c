package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter provides per-client token bucket rate limiting.
// Tokens refill at a fixed rate; each request consumes one; requests are
// rejected when the bucket is empty. Burst allows short spikes above the
// steady rate.
type RateLimiter struct {
	rate      float64 // tokens per second
	burst     float64
	skipPaths []string

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	SkipPaths         []string
}

// DefaultRateLimitConfig returns default rate limit configuration.
func DefaultRateLimitConfig(perSecond, burst int) *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: float64(perSecond),
		Burst:             burst,
		SkipPaths:         []string{"/health", "/metrics"},
	}
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig(50, 100)
	}
	return &RateLimiter{
		rate:      config.RequestsPerSecond,
		burst:     float64(config.Burst),
		skipPaths: config.SkipPaths,
		buckets:   make(map[string]*bucket),
	}
}

// allow consumes one token for the key, refilling first.
func (r *RateLimiter) allow(key string, now time.Time) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: r.burst, lastFill: now}
		r.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastFill).Seconds() * r.rate
	if b.tokens > r.burst {
		b.tokens = r.burst
	}
	b.lastFill = now

	if b.tokens < 1 {
		return false, 0
	}
	b.tokens--
	return true, int(b.tokens)
}

// GinMiddleware returns the Gin middleware for rate limiting.
func (r *RateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range r.skipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		key := r.key(c)
		allowed, remaining := r.allow(key, time.Now())

		c.Header("X-RateLimit-Limit", strconv.Itoa(int(r.burst)))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "too many requests, please retry later",
				"code":    "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		c.Next()
	}
}

// key identifies a caller: the authenticated client if present, else the IP.
func (r *RateLimiter) key(c *gin.Context) string {
	if clientID, exists := c.Get(ContextKeyClient); exists {
		if id, ok := clientID.(string); ok && id != "" {
			return "client:" + id
		}
	}
	return "ip:" + c.ClientIP()
}
