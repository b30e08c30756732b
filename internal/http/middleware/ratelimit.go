package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorTTL   = 10 * time.Minute
	sweepEveryN  = 5000
	retryAfterRL = "1"
)

type keyFunc func(*gin.Context) string

// KeyByUserOrIP buckets callers by identity when they carry one and by client
// IP otherwise, so anonymous traffic never drains the demo user's bucket.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := UserID(c); id != DemoUser {
			return "user:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller key. Buckets idle for longer
// than ttl are dropped during a periodic sweep.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	skip  map[string]bool

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter refills rps tokens per second up to burst (at least 1).
// Routes or raw paths listed in skipPaths are never limited.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, skipPaths ...string) *RateLimiter {
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    max(burst, 1),
		keyFn:    keyFn,
		skip:     make(map[string]bool, len(skipPaths)),
		visitors: make(map[string]*visitor),
		ttl:      visitorTTL,
	}
	for _, p := range skipPaths {
		rl.skip[p] = true
	}
	return rl
}

// sweep drops idle buckets. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.ttl {
			delete(rl.visitors, k)
		}
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep first so a stale bucket for key itself starts over.
	if rl.cleanupN++; rl.cleanupN >= sweepEveryN {
		rl.sweep(now)
		rl.cleanupN = 0
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// IsRateBypass reports whether the request was marked as an idempotent
// replay by IdempotencyValidator.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

func (rl *RateLimiter) exempt(c *gin.Context) bool {
	return IsRateBypass(c) || rl.skip[c.FullPath()] || rl.skip[c.Request.URL.Path]
}

// Handler answers 429 rate_limited with Retry-After once a caller's bucket
// is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.exempt(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", retryAfterRL)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
