package http

import (
	"math"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-chatbot/internal/infra/config"
	"github.com/yanqian/faq-chatbot/pkg/util"
)

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		} else {
			logger.Warn("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		}

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// rateKey picks the bucket a request draws from.
type rateKey func(c *gin.Context) string

// clientIPKey buckets anonymous traffic by address.
func clientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// sessionKey buckets chat traffic by conversation, so students sharing a
// campus NAT address do not throttle each other. It must run after authMiddleware.
func sessionKey(c *gin.Context) string {
	if claims, ok := getClaims(c); ok {
		return "session:" + claims.SessionID
	}
	return clientIPKey(c)
}

func rateLimitMiddleware(limiter *rateLimiter, key rateKey, logger *slog.Logger) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		bucket := key(c)
		if limiter.allow(bucket) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "bucket", bucket, "path", c.Request.URL.Path)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, please wait a moment before asking again", nil))
	}
}

// rateLimiter is a token bucket per key, refilled continuously.
type rateLimiter struct {
	buckets       map[string]*bucket
	mu            sync.Mutex
	ratePerMinute float64
	burst         float64
	idle          time.Duration
	now           util.Clock
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// newRateLimiter returns nil when limiting is disabled.
func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		buckets:       make(map[string]*bucket),
		ratePerMinute: float64(cfg.RequestsPerMinute),
		burst:         float64(burst),
		idle:          5 * time.Minute,
		now:           util.NowUTC,
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastSeen: now}
		l.buckets[key] = b
	} else {
		if elapsed := now.Sub(b.lastSeen).Minutes(); elapsed > 0 {
			b.tokens = math.Min(l.burst, b.tokens+elapsed*l.ratePerMinute)
		}
		b.lastSeen = now
	}
	l.evictIdleLocked(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *rateLimiter) evictIdleLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}
