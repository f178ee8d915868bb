package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter caps attempts per client key in a fixed window. The login
// endpoint is the only unauthenticated mutation the gateway exposes, so it is
// the only consumer.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptWindow
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithNow(limit, window, time.Now)
}

func NewRateLimiterWithNow(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]*attemptWindow),
		limit:    limit,
		window:   window,
		now:      now,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	if rl.window <= 0 {
		return
	}

	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, win := range rl.attempts {
			if now.After(win.resetAt) {
				delete(rl.attempts, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, exists := rl.attempts[key]
	if !exists || now.After(win.resetAt) {
		rl.attempts[key] = &attemptWindow{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	if win.count >= rl.limit {
		return false
	}

	win.count++
	return true
}

// LoginRateLimit guards the login endpoint per client IP.
func LoginRateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many login attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}
