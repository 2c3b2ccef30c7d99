// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods (POST).
// IdempotencyValidator validates an optional Idempotency-Key request header
// and stashes the key together with the caller's scope so the handler can
// pass both to the service, which replays the original result for a repeated
// (scope, key) pair.
package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a
// previously completed request.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// MsgBadIdempotencyKey is the 400 message for a malformed key.
const MsgBadIdempotencyKey = "invalid Idempotency-Key"

const ctxKeyIdemKey = "idem.key"

// defaultKeyPattern is an RFC-7230-ish token plus common safe characters.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope names the namespace a key belongs to: the authenticated
// user when there is one, the client IP otherwise.
func IdempotencyScope(c *gin.Context) string {
	return KeyByUserOrIP()(c)
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means defaultKeyPattern.
	Pattern *regexp.Regexp
}

// IdempotencyValidator validates the Idempotency-Key header (if present) and
// stashes it in the request context.
//
//   - Header absent: no-op.
//   - Header invalid: records a 400 domain error and aborts.
func IdempotencyValidator(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			_ = c.Error(domain.BadRequest(MsgBadIdempotencyKey))
			c.Abort()
			return
		}
		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}
