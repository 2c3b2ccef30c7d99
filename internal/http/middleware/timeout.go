// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file attaches a per-request deadline to the request context. Store and
// service calls observe it through ctx; when it expires they fail with
// context.DeadlineExceeded, which the error translator maps to 504.
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds the request context by d. Non-positive d disables it.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
