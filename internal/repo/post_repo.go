// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// PostPatch carries the optional fields of a partial post update.
type PostPatch struct {
	Title   *string
	Content *string
	UserID  *string
}

// CreatePost inserts p with a fresh UUID. A non-empty but malformed UserID is
// rejected with *InvalidIDError; an empty one is left to the model checks.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	if strings.TrimSpace(p.UserID) != "" {
		if err := checkID("Post", "userId", p.UserID); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	return db.WithContext(ctx).Create(p).Error
}

// GetPost fetches a post by id, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	if err := checkID("Post", "id", id); err != nil {
		return nil, err
	}
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPosts returns the total number of posts.
func CountPosts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Post{}).Count(&total).Error
	return total, err
}

// ListPostsPage returns a page of posts, newest first.
func ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	out := []domain.Post{}
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdatePost applies patch to the post identified by id and returns the
// updated row. The model checks run on save.
func UpdatePost(ctx context.Context, db *gorm.DB, id string, patch PostPatch) (*domain.Post, error) {
	if err := checkID("Post", "id", id); err != nil {
		return nil, err
	}
	if patch.UserID != nil && strings.TrimSpace(*patch.UserID) != "" {
		if err := checkID("Post", "userId", *patch.UserID); err != nil {
			return nil, err
		}
	}
	var p domain.Post
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Content != nil {
			p.Content = *patch.Content
		}
		if patch.UserID != nil {
			p.UserID = *patch.UserID
		}
		p.UpdatedAt = time.Now().UTC()
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes the post identified by id. It returns ErrNotFound when
// no row was deleted.
func DeletePost(ctx context.Context, db *gorm.DB, id string) error {
	if err := checkID("Post", "id", id); err != nil {
		return err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
