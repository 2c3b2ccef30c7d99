// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the request validator. Validate[T] decodes the JSON
// body into a T, runs go-playground/validator over it through Gin's binding
// engine and stores the typed value for the handler (read it back with
// Payload[T]). The first violation becomes a 400 domain error whose message
// names the offending field by its JSON name, e.g. `"email" must be a valid
// email`. Fields not declared on T are dropped.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

const payloadKey = "payload"

// Validation messages with no field placeholder.
const (
	MsgInvalidJSON       = "invalid JSON body"
	MsgBodyTooLarge      = "request body too large"
	MsgPasswordStrength  = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	MsgPasswordsMismatch = "Password and password confirm must be the same"
)

var setupOnce sync.Once

// setupValidator registers custom rules and JSON field naming on Gin's
// validator engine. It is idempotent.
func setupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("strongpassword", strongPassword)
		_ = v.RegisterValidation("notblank", notBlank)
	})
}

// strongPassword accepts ASCII letters and digits only, with at least one
// lower-case letter, one upper-case letter and one digit.
func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			return false
		}
	}
	return lower && upper && digit
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimFunc(fl.Field().String(), unicode.IsSpace) != ""
}

// Validate returns middleware that binds and validates the JSON body as T.
// An empty body is validated as the zero T so missing fields are reported
// as required rather than as malformed JSON.
func Validate[T any]() gin.HandlerFunc {
	setupValidator()
	return func(c *gin.Context) {
		req := new(T)
		err := c.ShouldBindJSON(req)
		if errors.Is(err, io.EOF) {
			err = binding.Validator.ValidateStruct(req)
		}
		if err != nil {
			_ = c.Error(bindError(err))
			c.Abort()
			return
		}
		c.Set(payloadKey, req)
		c.Next()
	}
}

// Payload returns the value stored by Validate[T].
func Payload[T any](c *gin.Context) (*T, bool) {
	v, ok := c.Get(payloadKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*T)
	return p, ok
}

// bindError converts a binding failure into a domain error.
func bindError(err error) *domain.Error {
	var (
		tooLarge *http.MaxBytesError
		verrs    validator.ValidationErrors
		typeErr  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tooLarge):
		return domain.NewError(MsgBodyTooLarge, http.StatusRequestEntityTooLarge)
	case errors.As(err, &verrs) && len(verrs) > 0:
		return domain.BadRequest(violationMessage(verrs[0]))
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return domain.BadRequest(fmt.Sprintf("%q must be %s", lastSegment(typeErr.Field), kindPhrase(typeErr.Type)))
	default:
		return domain.BadRequest(MsgInvalidJSON)
	}
}

// violationMessage renders a single field error.
func violationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("%q must be a valid GUID", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "strongpassword":
		return MsgPasswordStrength
	case "eqfield":
		return MsgPasswordsMismatch
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func kindPhrase(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "of type object"
	case reflect.Pointer:
		return kindPhrase(t.Elem())
	default:
		return "valid"
	}
}
