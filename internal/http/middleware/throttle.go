// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Throttle, an in-memory token-bucket limiter with
// per-identity buckets and opportunistic garbage collection. It sits on the
// credential routes (sign-up, log-in) in front of bcrypt, on top of the
// global fixed-window limiter, to blunt password guessing bursts.
//
// Notes:
//   - This limiter is process-local. The global window limiter can be shared
//     through Redis; this one is a cheap per-instance brake.
//   - Rejections surface as the same 429 domain error the window limiter uses.
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// visitor holds a single rate limiter and the last time it was seen.
// Used to opportunistically evict idle buckets.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle implements a per-key token-bucket limiter.
//
// This type is safe for concurrent use.
type Throttle struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewThrottle constructs a Throttle with the given tokens-per-second and
// burst size, keyed by keyFn.
//
//   - rps:   tokens replenished per second (0 allows no requests; use >0).
//   - burst: maximum burst size; values <= 0 are coerced to 1.
//   - keyFn: function that maps a request to a bucket identity; nil means KeyByIP.
func NewThrottle(rps float64, burst int, keyFn keyFunc) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByIP()
	}
	return &Throttle{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute, // evict idle entries after TTL
	}
}

// getVisitor returns (and updates) the limiter for key, creating it if absent.
// It also performs opportunistic GC of idle entries after ~5000 lookups.
//
// IMPORTANT: Run GC *before* touching the requested visitor so an "old" bucket
// can be evicted even when it's the one being fetched.
func (t *Throttle) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanupN++
	if t.cleanupN >= 5000 {
		for k, vv := range t.visitors {
			if now.Sub(vv.lastSeen) >= t.ttl {
				delete(t.visitors, k)
			}
		}
		t.cleanupN = 0
	}

	if v, ok := t.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(t.rps, t.burst)
	t.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns a Gin middleware that enforces the per-key bucket. Buckets
// are scoped per route so sign-up traffic does not drain log-in tokens.
func (t *Throttle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := t.keyFn(c) + "|" + c.FullPath()
		if t.getVisitor(key).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		rateLimitRejections.WithLabelValues("throttle").Inc()
		_ = c.Error(domain.TooManyRequests(RateLimitMessage))
		c.Abort()
	}
}
