// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file defines the structured errors the store raises so
// the HTTP layer can classify failures without parsing driver messages.
package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// InvalidIDError reports an identifier that is not a well-formed UUID. It is
// raised before any query is issued.
type InvalidIDError struct {
	Model string // target resource, e.g. "User"
	Field string // offending field, e.g. "id" or "userId"
	Value string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid %s %q for %s", e.Field, e.Value, e.Model)
}

// DuplicateKeyError reports a unique-index violation on Field.
type DuplicateKeyError struct {
	Model string
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s for %s: %v", e.Field, e.Model, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// checkID validates that id is a canonical UUID string.
func checkID(model, field, id string) error {
	if len(id) != 36 {
		return &InvalidIDError{Model: model, Field: field, Value: id}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &InvalidIDError{Model: model, Field: field, Value: id}
	}
	return nil
}

// isDuplicate detects unique-constraint violations, including drivers that
// do not translate them to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
