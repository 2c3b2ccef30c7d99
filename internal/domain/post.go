package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// Post is a piece of content written by a user.
//
// Author is not a column: it is filled by the service layer with a summary of
// the owning user (name and email) when posts are read.
type Post struct {
	ID        string    `json:"id"               gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title"            gorm:"type:varchar(255);not null"`
	Content   string    `json:"content"          gorm:"type:text;not null"`
	UserID    string    `json:"userId"           gorm:"type:char(36);not null;index"`
	Author    *Author   `json:"author,omitempty" gorm:"-"`
	CreatedAt time.Time `json:"createdAt"        gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Author is the public projection of a user embedded in posts.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BeforeSave runs the model checks on every create and update.
func (p *Post) BeforeSave(*gorm.DB) error { return p.Validate() }

// Validate checks the stored shape of a post.
func (p *Post) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return &ValidationError{Model: "Post", Field: "title", Message: "title is required"}
	case utf8.RuneCountInString(p.Title) > 255:
		return &ValidationError{Model: "Post", Field: "title", Message: "title must be at most 255 characters"}
	case strings.TrimSpace(p.Content) == "":
		return &ValidationError{Model: "Post", Field: "content", Message: "content is required"}
	case strings.TrimSpace(p.UserID) == "":
		return &ValidationError{Model: "Post", Field: "userId", Message: "userId is required"}
	}
	return nil
}
