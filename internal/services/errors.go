// Package services defines the business logic for users and posts.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// The values are *domain.Error, so they already carry the status the error
// translator will answer with; errors.Is matches on identity.
package services

import "github.com/tbourn/go-users-posts-api/internal/domain"

// User-related errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = domain.NotFound("User")

	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so callers cannot tell which check failed.
	ErrInvalidCredentials = domain.BadRequest("Invalid email/password combination")
)

// Post-related errors.
var (
	// ErrPostNotFound indicates that the requested post does not exist.
	ErrPostNotFound = domain.NotFound("Post")
)
