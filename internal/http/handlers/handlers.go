// Package handlers wires HTTP endpoints for users and posts to the
// application services.
//
// Handlers are transport-thin: request bodies arrive already validated (see
// middleware.Validate), services own the rules, and every failure is
// recorded with c.Error for ErrorTranslator to render.
package handlers

import (
	"context"
	"math"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/repo"
	"github.com/tbourn/go-users-posts-api/internal/services"
	"github.com/tbourn/go-users-posts-api/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService defines account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	SignUp(ctx context.Context, in services.SignUpInput) (*domain.User, error)
	LogIn(ctx context.Context, email, password string) (string, error)
	List(ctx context.Context, page, limit int) ([]domain.User, int64, error)
	// Stats reports the active-user count and newest update time (for ETags).
	Stats(ctx context.Context) (int64, *time.Time, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch repo.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// PostService defines post operations consumed by HTTP handlers.
type PostService interface {
	List(ctx context.Context, page, limit int) ([]domain.Post, int64, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	// Create persists a post; a non-empty key makes it idempotent within scope.
	Create(ctx context.Context, in services.CreatePostInput, scope, key string) (*domain.Post, bool, error)
	Update(ctx context.Context, id string, patch repo.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for users and posts.
type Handlers struct {
	userSvc UserService
	postSvc PostService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(userSvc UserService, postSvc PostService) *Handlers {
	return &Handlers{userSvc: userSvc, postSvc: postSvc}
}

//
// Pagination
//

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// parsePagination reads page and limit from the query string. Missing values
// take defaults; anything that is not an integer >= 1 is a 400, as is a page
// whose row offset would overflow. limit is clamped to maxLimit.
func parsePagination(c *gin.Context) (page, limit int, err error) {
	page, err = utils.ParsePositive(c.Query("page"), defaultPage)
	if err != nil {
		return 0, 0, domain.BadRequest(`"page" ` + err.Error())
	}
	limit, err = utils.ParsePositive(c.Query("limit"), defaultLimit)
	if err != nil {
		return 0, 0, domain.BadRequest(`"limit" ` + err.Error())
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// The row offset (page-1)*limit must fit in an int.
	if page-1 > math.MaxInt/limit {
		return 0, 0, domain.BadRequest(`"page" ` + utils.ErrNotPositive.Error())
	}
	return page, limit, nil
}

func pagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Total:      total,
		TotalPages: utils.TotalPages(total, limit),
		Limit:      limit,
	}
}
