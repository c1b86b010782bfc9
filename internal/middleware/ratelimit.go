package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Limits enforced by the API.
const (
	APIRequestsPerMinute    = 120
	SubmitRequestsPerMinute = 20
)

// RateLimitConfig defines a fixed-window limit keyed per request.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	KeyFn  func(c fiber.Ctx) string
}

type window struct {
	count int
	end   time.Time
}

// RateLimiter counts requests per key in fixed windows. Expired windows are
// pruned while counting, at most once per window length, so no background
// goroutine is needed.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	nextPrune time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// decision is the outcome of counting one request.
type decision struct {
	allowed   bool
	remaining int
	reset     time.Time
}

func (rl *RateLimiter) take(key string) decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextPrune) {
		for k, w := range rl.windows {
			if now.After(w.end) {
				delete(rl.windows, k)
			}
		}
		rl.nextPrune = now.Add(rl.cfg.Window)
	}

	w, ok := rl.windows[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(rl.cfg.Window)}
		rl.windows[key] = w
	}
	w.count++
	return decision{
		allowed:   w.count <= rl.cfg.Max,
		remaining: max(rl.cfg.Max-w.count, 0),
		reset:     w.end,
	}
}

// Allow counts a request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.take(key).allowed
}

// Len returns the number of keys with a tracked window.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		d := rl.take(rl.cfg.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))
		if d.allowed {
			return c.Next()
		}

		retryAfter := int(d.reset.Sub(rl.now()).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       "RATE_LIMITED",
				"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
				"retryAfter": retryAfter,
			},
		})
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUserID keys on the authenticated user. Falls back to IP when the
// request was not authenticated.
func KeyByUserID(c fiber.Ctx) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.IP()
}

// NewAPIRateLimiter limits the whole API per client IP.
func NewAPIRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    APIRequestsPerMinute,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewSubmitRateLimiter limits review submissions per user.
func NewSubmitRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    SubmitRequestsPerMinute,
		Window: time.Minute,
		KeyFn:  KeyByUserID,
	})
}
