package auth

import "errors"

// Token verification errors. Every one of them satisfies
// errors.Is(err, ErrInvalidToken) so callers can treat them uniformly.
var (
	// ErrInvalidToken indicates the token is malformed, carries a bad
	// signature, uses an unexpected algorithm or lacks required claims.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token's exp claim is in the past.
	ErrExpiredToken = &tokenError{msg: "authentication token has expired"}

	// ErrTokenNotYetValid indicates the token's nbf claim is in the future.
	ErrTokenNotYetValid = &tokenError{msg: "authentication token not yet valid"}
)

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return e.msg }

func (e *tokenError) Is(target error) bool { return target == ErrInvalidToken }
