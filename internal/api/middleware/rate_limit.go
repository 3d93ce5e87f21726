package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a token bucket shared by every route. Tokens refill
// continuously at requests/window and never exceed the window budget.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	rate     float64
	lastTime time.Time
}

// NewRateLimiter allows up to requests per window.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   requests,
		capacity: requests,
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow takes one token, refilling for the time elapsed since the last call.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	if refill := int(elapsed * rl.rate); refill > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+refill)
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// RateLimit answers 429 with a Retry-After hint once the budget is spent.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			common.LogInfo("rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"code":        common.ErrCodeTooManyRequests,
				"retry_after": window.Seconds(),
			})
			return
		}

		c.Next()
	}
}
