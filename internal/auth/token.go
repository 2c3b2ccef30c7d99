// Package auth issues and verifies bearer credentials and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// MinSecretLength is the shortest signing secret accepted.
const MinSecretLength = 32

// Verifier turns a bearer token into the principal it was issued for.
type Verifier interface {
	Verify(token string) (domain.Principal, error)
}

// Claims is the JWT payload: the principal plus registered claims.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	leeway   time.Duration
	timeFunc func() time.Time
}

var _ Verifier = (*TokenService)(nil)

// NewTokenService returns a TokenService. secret must be at least
// MinSecretLength bytes and ttl positive.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		leeway:   30 * time.Second,
		timeFunc: time.Now,
	}, nil
}

// TTL reports the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token embedding p that expires after the configured TTL.
func (s *TokenService) Issue(p domain.Principal) (string, error) {
	now := s.timeFunc()
	claims := Claims{
		ID:    p.ID,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded
// principal. All failures satisfy errors.Is(err, ErrInvalidToken).
func (s *TokenService) Verify(token string) (domain.Principal, error) {
	now := s.timeFunc()
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug().Err(err).Msg("token expired")
			return domain.Principal{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug().Err(err).Msg("token not yet valid")
			return domain.Principal{}, ErrTokenNotYetValid
		default:
			log.Debug().Err(err).Str("error_type", fmt.Sprintf("%T", err)).Msg("token rejected")
			return domain.Principal{}, ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.Role == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}
