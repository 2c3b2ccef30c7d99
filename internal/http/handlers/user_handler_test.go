package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-users-posts-api/internal/domain"
	"github.com/tbourn/go-users-posts-api/internal/repo"
	"github.com/tbourn/go-users-posts-api/internal/services"
)

const validSignUp = `{"name":"Ada","email":"ada@example.com","password":"Passw0rdX","passwordConfirm":"Passw0rdX","role":"admin"}`

func TestSignUp_CreatesAndHidesPassword(t *testing.T) {
	var got services.SignUpInput
	svc := stubUserSvc{signUp: func(_ context.Context, in services.SignUpInput) (*domain.User, error) {
		got = in
		return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Password: "$2a$hash", Role: domain.RoleUser}, nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodPost, "/users/signup", validSignUp, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	e := decodeEnvelope(t, w)
	if e.Message != "User created successfully" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	if strings.Contains(string(e.Data), "password") || strings.Contains(string(e.Data), "$2a$") {
		t.Fatalf("password leaked: %s", e.Data)
	}
	if got.Name != "Ada" || got.Email != "ada@example.com" || got.Password != "Passw0rdX" {
		t.Fatalf("service got %+v", got)
	}
}

func TestSignUp_ValidationStopsBeforeService(t *testing.T) {
	called := false
	svc := stubUserSvc{signUp: func(context.Context, services.SignUpInput) (*domain.User, error) {
		called = true
		return nil, nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodPost, "/users/signup", `{"name":"Ada","email":"bad","password":"Passw0rdX","passwordConfirm":"Passw0rdX"}`, nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != `"email" must be a valid email` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if called {
		t.Fatal("service must not run on invalid payload")
	}
}

func TestSignUp_DuplicateEmail400(t *testing.T) {
	svc := stubUserSvc{signUp: func(context.Context, services.SignUpInput) (*domain.User, error) {
		return nil, &repo.DuplicateKeyError{Model: "User", Field: "email"}
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodPost, "/users/signup", validSignUp, nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != "Duplicate value for field: email" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestLogIn_ReturnsTokenOnly(t *testing.T) {
	svc := stubUserSvc{logIn: func(_ context.Context, email, password string) (string, error) {
		if email != "ada@example.com" || password != "Passw0rdX" {
			return "", services.ErrInvalidCredentials
		}
		return "signed.jwt.token", nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodPost, "/users/login", `{"email":"ada@example.com","password":"Passw0rdX"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	e := decodeEnvelope(t, w)
	var data map[string]any
	if err := json.Unmarshal(e.Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(data) != 1 || data["token"] != "signed.jwt.token" {
		t.Fatalf("expected only a token, got %v", data)
	}

	w = do(r, http.MethodPost, "/users/login", `{"email":"ada@example.com","password":"WrongPass1"}`, nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != "Invalid email/password combination" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestListUsers_PaginationParsing(t *testing.T) {
	var gotPage, gotLimit int
	svc := stubUserSvc{list: func(_ context.Context, page, limit int) ([]domain.User, int64, error) {
		gotPage, gotLimit = page, limit
		return []domain.User{{ID: "u1"}}, 25, nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodGet, "/users", "", nil)
	e := decodeEnvelope(t, w)
	if gotPage != 1 || gotLimit != 10 {
		t.Fatalf("defaults: page=%d limit=%d", gotPage, gotLimit)
	}
	if e.Message != "Users fetched successfully" || e.Pagination == nil ||
		*e.Pagination != (Pagination{Page: 1, Total: 25, TotalPages: 3, Limit: 10}) {
		t.Fatalf("unexpected envelope %s", w.Body.String())
	}

	do(r, http.MethodGet, "/users?page=2&limit=500", "", nil)
	if gotPage != 2 || gotLimit != 100 {
		t.Fatalf("clamp: page=%d limit=%d", gotPage, gotLimit)
	}

	for _, q := range []string{"page=0", "page=-1", "page=abc", "limit=0", "limit=1.5", "page=922337203685477590"} {
		w := do(r, http.MethodGet, "/users?"+q, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
		if msg := decodeError(t, w).Message; !strings.Contains(msg, "must be a positive integer") {
			t.Fatalf("%s: unexpected message %q", q, msg)
		}
	}
}

func TestListUsers_ETag304(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	listed := 0
	svc := stubUserSvc{
		stats: func(context.Context) (int64, *time.Time, error) { return 3, &ts, nil },
		list: func(context.Context, int, int) ([]domain.User, int64, error) {
			listed++
			return []domain.User{}, 3, nil
		},
	}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodGet, "/users", "", nil)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || !strings.HasPrefix(etag, `W/"users:3:`) {
		t.Fatalf("got %d etag=%q", w.Code, etag)
	}

	w = do(r, http.MethodGet, "/users", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected 304, got %d %s", w.Code, w.Body.String())
	}
	if listed != 1 {
		t.Fatalf("list should be skipped on 304, ran %d times", listed)
	}

	w = do(r, http.MethodGet, "/users?page=2", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK {
		t.Fatalf("etag must differ per page, got %d", w.Code)
	}
}

func TestGetUser_ErrorsPassThroughTranslator(t *testing.T) {
	svc := stubUserSvc{get: func(_ context.Context, id string) (*domain.User, error) {
		switch id {
		case "bad":
			return nil, &repo.InvalidIDError{Model: "User", Field: "id", Value: id}
		case "3f2504e0-4f89-41d3-9a0c-0305e82c3301":
			return &domain.User{ID: id, Name: "Ada"}, nil
		default:
			return nil, services.ErrUserNotFound
		}
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodGet, "/users/bad", "", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != "Invalid id for User" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/users/9b2d6c3e-1111-4222-8333-444455556666", "", nil)
	if w.Code != http.StatusNotFound || decodeError(t, w).Message != "User not found" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/users/3f2504e0-4f89-41d3-9a0c-0305e82c3301", "", nil)
	if w.Code != http.StatusOK || decodeEnvelope(t, w).Message != "User fetched successfully" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestUpdateUser_PassesOnlyProvidedFields(t *testing.T) {
	var got repo.UserPatch
	svc := stubUserSvc{update: func(_ context.Context, id string, p repo.UserPatch) (*domain.User, error) {
		got = p
		return &domain.User{ID: id, Name: *p.Name}, nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodPatch, "/users/u1", `{"name":"Ada King","role":"admin"}`, nil)
	if w.Code != http.StatusOK || decodeEnvelope(t, w).Message != "User updated successfully" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if got.Name == nil || *got.Name != "Ada King" || got.Email != nil {
		t.Fatalf("unexpected patch %+v", got)
	}

	w = do(r, http.MethodPatch, "/users/u1", `{"email":"nope"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteUser_204Then404(t *testing.T) {
	deleted := map[string]bool{}
	svc := stubUserSvc{del: func(_ context.Context, id string) error {
		if deleted[id] {
			return services.ErrUserNotFound
		}
		deleted[id] = true
		return nil
	}}
	r := newRouter(New(svc, stubPostSvc{}))

	w := do(r, http.MethodDelete, "/users/u1", "", nil)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("first delete: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodDelete, "/users/u1", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}
