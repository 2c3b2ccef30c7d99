// Package services – PostService
//
// This file implements PostService, which owns the lifecycle of posts:
// paginated listing, lookup, creation (optionally idempotent), partial update
// and deletion. Every returned post carries an author summary resolved from
// the users table; posts whose author no longer exists are returned without
// one.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// post identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultIdempotencyTTL bounds how long an Idempotency-Key is remembered.
const defaultIdempotencyTTL = 24 * time.Hour

// CreatePostInput carries the fields accepted when creating a post.
type CreatePostInput struct {
	Title   string
	Content string
	UserID  string
}

// PostService coordinates post persistence and author resolution.
type PostService struct {
	DB *gorm.DB

	// IdempotencyTTL is how long a create keyed by Idempotency-Key replays
	// the original result. Zero means defaultIdempotencyTTL.
	IdempotencyTTL time.Duration
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, ttl time.Duration) *PostService {
	return &PostService{DB: db, IdempotencyTTL: ttl}
}

// List returns a page of posts, newest first, and the total count.
func (s *PostService) List(ctx context.Context, page, limit int) ([]domain.Post, int64, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	_, limit, offset := pageOffset(page, limit, 10)
	total, err := repo.CountPosts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Post{}, 0, nil
	}
	items, err := repo.ListPostsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachAuthors(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches a post by id with its author summary.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	p, err := repo.GetPost(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.withAuthor(ctx, p)
}

// Create persists a new post. When key is non-empty the (scope, key) pair is
// recorded atomically with the post; a later call with the same pair inside
// the TTL returns the original post and replayed=true.
func (s *PostService) Create(ctx context.Context, in CreatePostInput, scope, key string) (p *domain.Post, replayed bool, err error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("post.user_id", in.UserID),
			attribute.Bool("idempotent", key != ""),
		),
	)
	defer span.End()

	post := &domain.Post{
		Title:   normalizeText(in.Title),
		Content: normalizeText(in.Content),
		UserID:  normalizeText(in.UserID),
	}

	if key == "" {
		if err := repo.CreatePost(ctx, s.DB, post); err != nil {
			return nil, false, err
		}
		p, err = s.withAuthor(ctx, post)
		return p, false, err
	}

	now := time.Now().UTC()
	if prior, ok, err := s.replay(ctx, scope, key, now); err != nil || ok {
		return prior, ok, err
	}
	if err := repo.PurgeIdempotency(ctx, s.DB, scope, key, now); err != nil {
		return nil, false, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreatePost(ctx, tx, post); err != nil {
			return err
		}
		_, err := repo.CreateIdempotency(ctx, tx, scope, key, post.ID, http.StatusCreated, s.ttl())
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key won; serve its result.
		prior, ok, rerr := s.replay(ctx, scope, key, now)
		if rerr != nil || ok {
			return prior, ok, rerr
		}
	}
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.String("post.id", post.ID))
	p, err = s.withAuthor(ctx, post)
	return p, false, err
}

// replay returns the post recorded for (scope, key) if one is still valid.
func (s *PostService) replay(ctx context.Context, scope, key string, now time.Time) (*domain.Post, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p, err := repo.GetPost(ctx, s.DB, rec.ResourceID)
	if errors.Is(err, repo.ErrNotFound) {
		// The original post was deleted since; release the key.
		return nil, false, repo.DeleteIdempotency(ctx, s.DB, scope, key)
	}
	if err != nil {
		return nil, false, err
	}
	p, err = s.withAuthor(ctx, p)
	return p, err == nil, err
}

// Update applies a partial update and returns the updated post.
func (s *PostService) Update(ctx context.Context, id string, patch repo.PostPatch) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	for _, f := range []*string{patch.Title, patch.Content, patch.UserID} {
		if f != nil {
			*f = normalizeText(*f)
		}
	}
	p, err := repo.UpdatePost(ctx, s.DB, id, patch)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.withAuthor(ctx, p)
}

// Delete removes a post by id.
func (s *PostService) Delete(ctx context.Context, id string) error {
	err := repo.DeletePost(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (s *PostService) withAuthor(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	one := []domain.Post{*p}
	if err := s.attachAuthors(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachAuthors resolves the author summary of every post in a single query.
func (s *PostService) attachAuthors(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	authors, err := repo.ListAuthors(ctx, s.DB, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		if a, ok := authors[posts[i].UserID]; ok {
			a := a
			posts[i].Author = &a
		}
	}
	return nil
}

func (s *PostService) ttl() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return defaultIdempotencyTTL
	}
	return s.IdempotencyTTL
}
