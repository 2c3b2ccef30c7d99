// Package services – UserService
//
// This file implements account management: sign-up with password hashing,
// log-in with credential issuance, and the CRUD operations behind /users.
// Emails are normalized (NFC + lower case) before they reach the store so the
// unique index is effectively case-insensitive.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-users-posts-api/internal/auth"
	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/repo"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
	CountActiveUsers(ctx context.Context, db *gorm.DB) (int64, error)
	ListActiveUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)
	UpdateUser(ctx context.Context, db *gorm.DB, id string, patch repo.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, db *gorm.DB, id string) error
	UsersStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// TokenIssuer signs a credential for a principal.
type TokenIssuer interface {
	Issue(p domain.Principal) (string, error)
}

// SignUpInput carries the fields accepted at sign-up.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// UserService provides account operations.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Hasher hashes and compares passwords.
	Hasher auth.PasswordHasher
	// Tokens issues credentials on successful log-in.
	Tokens TokenIssuer

	dummyMu   sync.Mutex
	dummyHash string
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo, h auth.PasswordHasher, t TokenIssuer) *UserService {
	return &UserService{DB: db, Repo: r, Hasher: h, Tokens: t}
}

// SignUp creates a regular user. The role is always domain.RoleUser and the
// stored password is a hash of in.Password.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "SignUp")
	defer span.End()

	return s.create(ctx, in, domain.RoleUser)
}

func (s *UserService) create(ctx context.Context, in SignUpInput, role string) (*domain.User, error) {
	hashed, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:     normalizeName(in.Name),
		Email:    normalizeEmail(in.Email),
		Password: hashed,
		Role:     role,
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LogIn verifies credentials and returns a signed token. Unknown email and
// wrong password both yield ErrInvalidCredentials; a dummy comparison runs for
// unknown emails so both paths cost one bcrypt evaluation.
func (s *UserService) LogIn(ctx context.Context, email, password string) (string, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "LogIn")
	defer span.End()

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		_ = s.Hasher.Compare(s.dummy(ctx), password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := s.Hasher.Compare(u.Password, password); err != nil {
		return "", ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	return s.Tokens.Issue(u.Principal())
}

// dummy returns the hash compared against on unknown emails. A failed Hash is
// logged and retried on the next call rather than cached.
func (s *UserService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash
	}
	h, err := s.Hasher.Hash("dummy-password-for-timing")
	if err != nil {
		l := zerolog.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = &log.Logger
		}
		l.Error().Err(err).Msg("timing hash unavailable")
		return ""
	}
	s.dummyHash = h
	return h
}

// List returns a page of active users, newest first, and the total count.
func (s *UserService) List(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "List",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("limit", limit)),
	)
	defer span.End()

	_, limit, offset := pageOffset(page, limit, 10)
	total, err := s.Repo.CountActiveUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}
	items, err := s.Repo.ListActiveUsersPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// Stats reports the active-user count and their latest update time, used for
// conditional list responses.
func (s *UserService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.UsersStats(ctx, s.DB)
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Update applies a partial update to name and/or email.
func (s *UserService) Update(ctx context.Context, id string, patch repo.UserPatch) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	if patch.Name != nil {
		v := normalizeName(*patch.Name)
		patch.Name = &v
	}
	if patch.Email != nil {
		v := normalizeEmail(*patch.Email)
		patch.Email = &v
	}
	u, err := s.Repo.UpdateUser(ctx, s.DB, id, patch)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.Repo.DeleteUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// EnsureAdmin creates an admin account unless a user with that email already
// exists. created reports whether a new account was written.
func (s *UserService) EnsureAdmin(ctx context.Context, in SignUpInput) (u *domain.User, created bool, err error) {
	existing, err := s.Repo.GetUserByEmail(ctx, s.DB, normalizeEmail(in.Email))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, false, err
	}
	u, err = s.create(ctx, in, domain.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
