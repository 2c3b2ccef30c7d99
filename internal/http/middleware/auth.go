// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the auth guard (Authenticate) and the role guard
// (RequireRole). Authenticate resolves the bearer token to a domain.Principal
// and stores it in the Gin context; RequireRole admits only principals whose
// role is in an allow-list. Both record failures with c.Error and abort, so
// the error translator writes the response.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/auth"
	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// Context keys under which Authenticate stores the caller.
const (
	principalKey = "principal"
	userIDKey    = "userID"
)

// Guard failure messages.
const (
	MsgNotLoggedIn  = "You are not logged in"
	MsgNotPermitted = "You are not authorized to access this resource"
)

// Authenticate requires an "Authorization: Bearer <token>" header and
// verifies the token with v. A missing or non-bearer header is a 401 domain
// error; a verification failure is recorded as-is (a token error) so the
// translator answers with its generic 401.
func Authenticate(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			authFailures.WithLabelValues("missing").Inc()
			_ = c.Error(domain.Unauthorized(MsgNotLoggedIn))
			c.Abort()
			return
		}

		p, err := v.Verify(token)
		if err != nil {
			authFailures.WithLabelValues("invalid").Inc()
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		c.Set(userIDKey, p.ID)
		c.Next()
	}
}

// RequireRole admits the request only when the authenticated principal's role
// is one of roles. It must run after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := append([]string(nil), roles...)
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || !p.HasRole(allowed...) {
			authFailures.WithLabelValues("forbidden").Inc()
			_ = c.Error(domain.Forbidden(MsgNotPermitted))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
