package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/http/middleware"
	"github.com/tbourn/go-users-posts-api/internal/repo"
	"github.com/tbourn/go-users-posts-api/internal/services"
)

// ---------- stubs ----------

type stubUserSvc struct {
	signUp func(ctx context.Context, in services.SignUpInput) (*domain.User, error)
	logIn  func(ctx context.Context, email, password string) (string, error)
	list   func(ctx context.Context, page, limit int) ([]domain.User, int64, error)
	stats  func(ctx context.Context) (int64, *time.Time, error)
	get    func(ctx context.Context, id string) (*domain.User, error)
	update func(ctx context.Context, id string, patch repo.UserPatch) (*domain.User, error)
	del    func(ctx context.Context, id string) error
}

func (s stubUserSvc) SignUp(ctx context.Context, in services.SignUpInput) (*domain.User, error) {
	return s.signUp(ctx, in)
}
func (s stubUserSvc) LogIn(ctx context.Context, email, password string) (string, error) {
	return s.logIn(ctx, email, password)
}
func (s stubUserSvc) List(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	return s.list(ctx, page, limit)
}
func (s stubUserSvc) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.stats == nil {
		return 0, nil, context.Canceled
	}
	return s.stats(ctx)
}
func (s stubUserSvc) Get(ctx context.Context, id string) (*domain.User, error) { return s.get(ctx, id) }
func (s stubUserSvc) Update(ctx context.Context, id string, patch repo.UserPatch) (*domain.User, error) {
	return s.update(ctx, id, patch)
}
func (s stubUserSvc) Delete(ctx context.Context, id string) error { return s.del(ctx, id) }

type stubPostSvc struct {
	list   func(ctx context.Context, page, limit int) ([]domain.Post, int64, error)
	get    func(ctx context.Context, id string) (*domain.Post, error)
	create func(ctx context.Context, in services.CreatePostInput, scope, key string) (*domain.Post, bool, error)
	update func(ctx context.Context, id string, patch repo.PostPatch) (*domain.Post, error)
	del    func(ctx context.Context, id string) error
}

func (s stubPostSvc) List(ctx context.Context, page, limit int) ([]domain.Post, int64, error) {
	return s.list(ctx, page, limit)
}
func (s stubPostSvc) Get(ctx context.Context, id string) (*domain.Post, error) { return s.get(ctx, id) }
func (s stubPostSvc) Create(ctx context.Context, in services.CreatePostInput, scope, key string) (*domain.Post, bool, error) {
	return s.create(ctx, in, scope, key)
}
func (s stubPostSvc) Update(ctx context.Context, id string, patch repo.PostPatch) (*domain.Post, error) {
	return s.update(ctx, id, patch)
}
func (s stubPostSvc) Delete(ctx context.Context, id string) error { return s.del(ctx, id) }

// ---------- plumbing ----------

// newRouter mounts the handlers behind the translator with the same
// validators the production router uses.
func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID(), ErrorTranslator(), middleware.Recovery())
	r.NoRoute(NotFoundRoute)
	r.NoMethod(MethodNotAllowed)

	r.POST("/users/signup", middleware.Validate[SignUpRequest](), h.SignUp)
	r.POST("/users/login", middleware.Validate[LogInRequest](), h.LogIn)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.PATCH("/users/:id", middleware.Validate[UpdateUserRequest](), h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)

	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:id", h.GetPost)
	r.POST("/posts", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}), middleware.Validate[CreatePostRequest](), h.CreatePost)
	r.PUT("/posts/:id", middleware.Validate[UpdatePostRequest](), h.UpdatePost)
	r.DELETE("/posts/:id", h.DeletePost)
	return r
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	if er.Status != "error" {
		t.Fatalf("expected status=error, got %q", er.Status)
	}
	return er
}

// envelope decodes a success body; data is left raw for the caller.
type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagenation"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode envelope %q: %v", w.Body.String(), err)
	}
	if e.Status != "success" {
		t.Fatalf("expected status=success, got %q", e.Status)
	}
	return e
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)
	return &buf
}
