// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - Malformed ids yield *InvalidIDError before any query runs.
//   - Missing rows yield ErrNotFound.
//   - A second account with the same email yields *DuplicateKeyError.
//   - Model checks (domain.User.Validate) yield *domain.ValidationError.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// UserPatch carries the optional fields of a partial user update.
type UserPatch struct {
	Name  *string
	Email *string
}

// CreateUser inserts u, assigning a fresh UUID and UTC timestamps.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return &DuplicateKeyError{Model: "User", Field: "email", Err: err}
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	if err := checkID("User", "id", id); err != nil {
		return nil, err
	}
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by (case-folded) email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountActiveUsers returns the number of users with is_active = true.
func CountActiveUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("is_active = ?", true).
		Count(&total).Error
	return total, err
}

// ListActiveUsersPage returns a page of active users, newest first, without
// loading the password column.
func ListActiveUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	out := []domain.User{}
	err := db.WithContext(ctx).
		Omit("password").
		Where("is_active = ?", true).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateUser applies patch to the user identified by id and returns the
// updated row. The model checks run on save.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, patch UserPatch) (*domain.User, error) {
	if err := checkID("User", "id", id); err != nil {
		return nil, err
	}
	var u domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		u.UpdatedAt = time.Now().UTC()
		return tx.Save(&u).Error
	})
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) && isDuplicate(err) {
			return nil, &DuplicateKeyError{Model: "User", Field: "email", Err: err}
		}
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the user identified by id. It returns ErrNotFound when
// no row was deleted.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	if err := checkID("User", "id", id); err != nil {
		return err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAuthors loads the public projection of the users in ids, keyed by id.
// Unknown ids are simply absent from the result.
func ListAuthors(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Author, error) {
	out := make(map[string]domain.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Author
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("id", "name", "email").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}
