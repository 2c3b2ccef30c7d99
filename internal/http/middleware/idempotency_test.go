package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func idemRouter(opts IdempotencyOptions, got *string, present *bool) *gin.Engine {
	r := newEngine(IdempotencyValidator(opts))
	r.POST("/posts", func(c *gin.Context) {
		*got, *present = GetIdempotencyKey(c)
		c.Status(http.StatusCreated)
	})
	return r
}

func TestIdempotencyValidator_AbsentIsNoop(t *testing.T) {
	var key string
	var ok bool
	w := do(idemRouter(IdempotencyOptions{}, &key, &ok), http.MethodPost, "/posts", []byte(`{}`), nil)
	if w.Code != http.StatusCreated || ok || key != "" {
		t.Fatalf("expected pass-through without key, got %d %q %v", w.Code, key, ok)
	}
}

func TestIdempotencyValidator_StoresValidKey(t *testing.T) {
	var key string
	var ok bool
	w := do(idemRouter(IdempotencyOptions{}, &key, &ok), http.MethodPost, "/posts", []byte(`{}`),
		map[string]string{HeaderIdempotencyKey: "order-42:v1"})
	if w.Code != http.StatusCreated || !ok || key != "order-42:v1" {
		t.Fatalf("expected stored key, got %d %q %v", w.Code, key, ok)
	}
}

func TestIdempotencyValidator_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"bad chars", IdempotencyOptions{}, "has space"},
		{"too long default", IdempotencyOptions{}, strings.Repeat("k", 201)},
		{"too long custom", IdempotencyOptions{MaxLen: 4}, "abcde"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var key string
			var ok bool
			w := do(idemRouter(tc.opts, &key, &ok), http.MethodPost, "/posts", []byte(`{}`),
				map[string]string{HeaderIdempotencyKey: tc.key})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if msg := decodeMessage(t, w); msg != MsgBadIdempotencyKey {
				t.Fatalf("unexpected message %q", msg)
			}
			if ok {
				t.Fatal("handler must not run")
			}
		})
	}
}

func TestIdempotencyScope(t *testing.T) {
	var anon, authed string
	r := newEngine()
	r.POST("/anon", func(c *gin.Context) { anon = IdempotencyScope(c) })
	r.POST("/authed", func(c *gin.Context) {
		c.Set(userIDKey, "u-7")
		authed = IdempotencyScope(c)
	})
	do(r, http.MethodPost, "/anon", nil, nil)
	do(r, http.MethodPost, "/authed", nil, nil)

	if anon == "" || anon == authed {
		t.Fatalf("expected distinct scopes, got anon=%q authed=%q", anon, authed)
	}
	if !strings.Contains(authed, "u-7") {
		t.Fatalf("expected user scope, got %q", authed)
	}
}
