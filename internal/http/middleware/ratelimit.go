// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the global fixed-window rate limiter. Each client
// identity gets a window {Count, Start}; a request is admitted while Count is
// below the ceiling, and the window restarts once its duration has elapsed.
// Window state lives behind WindowStore so a single process can keep it in
// memory while a fleet shares it through Redis (see ratelimit_redis.go).
//
// Every response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. A rejection is recorded as a 429 domain error and
// answered by the error translator, with Retry-After set here.
package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// RateLimitMessage is the message of the 429 error raised on rejection.
const RateLimitMessage = "Too many requests, please try again later."

// keyFunc selects the identity used to key a rate-limit window or bucket.
//
// Implementations should return a stable string for the duration of a request
// (e.g., "user:<id>" or "ip:<addr>").
type keyFunc func(*gin.Context) string

// KeyByIP keys limits by client IP.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

// KeyByUserOrIP returns a keyFunc that prefers a user identity (from the Gin
// context under "userID", set by Authenticate) and falls back to the client IP
// address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(userIDKey); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// Window is the per-identity fixed-window state.
type Window struct {
	Count int
	Start time.Time
}

// WindowStore records hits against per-key windows. Hit must be atomic per
// key: reset the window when now-Start >= window, reject without incrementing
// when Count >= limit, otherwise increment and admit. The returned Window is
// the state after the call.
type WindowStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Window, bool, error)
}

// MemoryWindowStore is a process-local WindowStore. Expired windows are
// evicted opportunistically every few thousand hits to bound memory.
//
// This type is safe for concurrent use.
type MemoryWindowStore struct {
	mu       sync.Mutex
	windows  map[string]*Window
	cleanupN uint64
	every    uint64
}

// NewMemoryWindowStore returns an empty in-memory store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{windows: make(map[string]*Window), every: 5000}
}

// Hit implements WindowStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict before touching key so a stale entry is never refreshed.
	s.cleanupN++
	if s.cleanupN >= s.every {
		for k, w := range s.windows {
			if now.Sub(w.Start) >= window {
				delete(s.windows, k)
			}
		}
		s.cleanupN = 0
	}

	w, ok := s.windows[key]
	if !ok || now.Sub(w.Start) >= window {
		w = &Window{Start: now}
		s.windows[key] = w
	}
	if w.Count >= limit {
		return *w, false, nil
	}
	w.Count++
	return *w, true, nil
}

// Len reports the number of tracked windows.
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// WindowLimiterOptions configures NewWindowLimiter.
type WindowLimiterOptions struct {
	// Limit is the ceiling per window. Values <= 0 default to 100.
	Limit int
	// Window is the window length. Values <= 0 default to 15 minutes.
	Window time.Duration
	// Store holds window state. Nil means a fresh MemoryWindowStore.
	Store WindowStore
	// KeyFn selects the client identity. Nil means KeyByIP.
	KeyFn keyFunc
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// WindowLimiter enforces a fixed-window ceiling per client identity.
type WindowLimiter struct {
	limit  int
	window time.Duration
	store  WindowStore
	keyFn  keyFunc
	now    func() time.Time
}

// NewWindowLimiter builds a WindowLimiter from opts, applying defaults.
func NewWindowLimiter(opts WindowLimiterOptions) *WindowLimiter {
	l := &WindowLimiter{
		limit:  opts.Limit,
		window: opts.Window,
		store:  opts.Store,
		keyFn:  opts.KeyFn,
		now:    opts.Now,
	}
	if l.limit <= 0 {
		l.limit = 100
	}
	if l.window <= 0 {
		l.window = 15 * time.Minute
	}
	if l.store == nil {
		l.store = NewMemoryWindowStore()
	}
	if l.keyFn == nil {
		l.keyFn = KeyByIP()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Handler returns the Gin middleware.
//
// A store failure is logged and the request admitted; the limiter protects
// capacity and must not turn a Redis outage into a full outage.
func (l *WindowLimiter) Handler() gin.HandlerFunc {
	limit := strconv.Itoa(l.limit)
	return func(c *gin.Context) {
		now := l.now()
		w, ok, err := l.store.Hit(c.Request.Context(), l.keyFn(c), l.limit, l.window, now)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("rate limit store unavailable; admitting request")
			c.Next()
			return
		}

		reset := w.Start.Add(l.window)
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, l.limit-w.Count)))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			secs := int(math.Ceil(reset.Sub(now).Seconds()))
			h.Set("Retry-After", strconv.Itoa(max(1, secs)))
			rateLimitRejections.WithLabelValues("window").Inc()
			_ = c.Error(domain.TooManyRequests(RateLimitMessage))
			c.Abort()
			return
		}
		c.Next()
	}
}
