// Package handlers – error translation.
//
// This file is the single place where errors become HTTP statuses. Handlers
// and middleware record failures with c.Error and abort; ErrorTranslator runs
// after the chain and writes exactly one error envelope. Classification is
// ordered and the first match wins:
//
//  1. *repo.InvalidIDError     → 400 "Invalid <field> for <Model>"
//  2. *domain.ValidationError  → 400, its message
//  3. *repo.DuplicateKeyError  → 400 "Duplicate value for field: <field>"
//  4. token errors             → 401 "Invalid or expired token"
//  5. *domain.Error            → its own status and message
//  6. context.DeadlineExceeded → 504 "request timed out"
//  7. anything else            → 500 with the error's message
//
// Example response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "status": "error",
//	  "message": "Post not found",
//	  "requestId": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-users-posts-api/internal/auth"
	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/http/middleware"
	"github.com/tbourn/go-users-posts-api/internal/repo"
)

// Translator messages.
const (
	MsgInvalidToken = "Invalid or expired token"
	MsgTimeout      = "request timed out"
)

// ErrorTranslator writes the response for the last error recorded on the
// context, unless something downstream already wrote one. 5xx responses are
// logged at error level with the underlying error; 4xx at debug.
func ErrorTranslator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := Translate(err)

		lg := middleware.LoggerFrom(c)
		if status >= http.StatusInternalServerError {
			lg.Error().Err(err).Int("status", status).Msg("request failed")
		} else {
			lg.Debug().Err(err).Int("status", status).Msg("request rejected")
		}

		c.AbortWithStatusJSON(status, ErrorResponse{
			Status:    statusError,
			Message:   msg,
			RequestID: middleware.RequestIDFrom(c),
		})
	}
}

// Translate classifies err into an HTTP status and a client-safe message.
func Translate(err error) (int, string) {
	var (
		invalidID *repo.InvalidIDError
		invalid   *domain.ValidationError
		dup       *repo.DuplicateKeyError
		de        *domain.Error
	)
	switch {
	case errors.As(err, &invalidID):
		return http.StatusBadRequest, fmt.Sprintf("Invalid %s for %s", invalidID.Field, invalidID.Model)
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.As(err, &dup):
		return http.StatusBadRequest, "Duplicate value for field: " + dup.Field
	case isTokenError(err):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.As(err, &de):
		return de.StatusCode(), de.Message()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, MsgTimeout
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func isTokenError(err error) bool {
	for _, target := range []error{
		auth.ErrInvalidToken,
		jwt.ErrTokenMalformed,
		jwt.ErrTokenExpired,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NotFoundRoute records a 404 for requests that match no route.
func NotFoundRoute(c *gin.Context) {
	abort(c, domain.NewError(fmt.Sprintf("Can't find %s on this server", c.Request.URL.Path), http.StatusNotFound))
}

// MethodNotAllowed records a 405 for a known path hit with the wrong method.
func MethodNotAllowed(c *gin.Context) {
	abort(c, domain.NewError(fmt.Sprintf("Can't %s %s on this server", c.Request.Method, c.Request.URL.Path), http.StatusMethodNotAllowed))
}

// abort records err for the translator and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
