package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles mutating requests per user. Reads are not limited;
// apply it only to routes that take the per-user lock.
type RateLimiter struct {
	lastSeen map[string]time.Time
	mu       sync.Mutex
	interval time.Duration
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		lastSeen: make(map[string]time.Time),
		interval: interval,
	}
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-Username")
		if user == "" {
			c.Next()
			return
		}
		r.mu.Lock()
		last, seen := r.lastSeen[user]
		if seen && time.Since(last) < r.interval {
			r.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.lastSeen[user] = time.Now()
		r.mu.Unlock()
		c.Next()
	}
}
