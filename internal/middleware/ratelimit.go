package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/pkg/response"
)

// RateLimiter is a sliding-window limiter keyed by client IP
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // Maximum requests per window
	window   time.Duration // Time window
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a new rate limiter. Call Stop to end its cleanup loop.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for ip, times := range rl.requests {
				if valid := rl.prune(times, now); len(valid) == 0 {
					delete(rl.requests, ip)
				} else {
					rl.requests[ip] = valid
				}
			}
			rl.mu.Unlock()
		}
	}
}

// prune drops timestamps that fell out of the window
func (rl *RateLimiter) prune(times []time.Time, now time.Time) []time.Time {
	valid := times[:0]
	for _, t := range times {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}
	return valid
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.prune(rl.requests[ip], now)
	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// RateLimit middleware limits requests per IP. A limit of 0 disables it.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.limit <= 0 {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
