// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds a process-local token-bucket limiter. Each client gets its
// own bucket from golang.org/x/time/rate; idle buckets are swept every few
// thousand lookups so the map stays bounded. Requests flagged as idempotent
// replays by IdempotencyValidator skip the limiter entirely.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the identity of its bucket.
type KeyFunc func(*gin.Context) string

// KeyByClientIP buckets requests by the client address Gin resolves
// (honoring trusted proxies).
func KeyByClientIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-key request rate. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	sweepAt uint64
	lookups uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst. A burst <= 0 is treated as 1; a nil keyFn keys by client IP.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByClientIP()
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
		sweepAt: 5000,
	}
}

// limiterFor returns the bucket for key, creating it on first use. The idle
// sweep runs before the lookup so a stale bucket is dropped even when it is
// the one being requested.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepAt {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay that should not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the middleware. Over-limit requests get 429 with
// code "rate_limited" and a Retry-After hint in whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.limiterFor(rl.keyFn(c), time.Now())
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfter is the time for one token to refill, rounded up, minimum 1s.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 || rl.limit == rate.Inf {
		return 1
	}
	secs := int(1/float64(rl.limit) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}
