package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimiter is an in-memory token bucket limiter keyed by client.
// Each key may burst up to limit requests and refills at limit per window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter admitting limit requests per key per window.
// Idle keys are swept until ctx is cancelled.
func NewRateLimiter(ctx context.Context, limit int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  per,
		now:     time.Now,
	}
	go rl.sweep(ctx, per*2)
	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, cl := range rl.clients {
				// a bucket idle for a full window is full again
				if now.Sub(cl.lastSeen) > rl.window {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) bucket(key string, now time.Time) *client {
	cl, exists := rl.clients[key]
	if !exists {
		cl = &client{bucket: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl
}

// Allow consumes one request for key. It reports whether the request is
// admitted and, when it is not, how long until a token is available.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	r := rl.bucket(key, now).bucket.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Remaining returns how many requests key may still make right now
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.clients[key]
	if !exists {
		return rl.limit
	}
	tokens := int(math.Floor(cl.bucket.TokensAt(rl.now())))
	return max(tokens, 0)
}

// RateLimit limits requests per client IP, answering 429 with Retry-After
// once the budget is spent.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, retryAfter := limiter.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.Header("X-RateLimit-Remaining", "0")
			abortWithError(c, dto.ErrCodeRateLimited, "Too many requests, try again later")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
