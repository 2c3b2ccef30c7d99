package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered account. The password column holds a bcrypt hash and
// is never serialized.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: unique, stored case-folded.
//   - Role: "user" or "admin" (enforced by DB constraint).
//   - IsActive: inactive users are hidden from listings.
type User struct {
	ID             string    `json:"id"                       gorm:"type:char(36);primaryKey"`
	Name           string    `json:"name"                     gorm:"type:varchar(255);not null"`
	Email          string    `json:"email"                    gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password       string    `json:"-"                        gorm:"type:varchar(255);not null"`
	Role           string    `json:"role"                     gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	ProfilePicture string    `json:"profilePicture,omitempty" gorm:"type:varchar(1024)"`
	IsActive       bool      `json:"isActive"                 gorm:"not null;default:true;index"`
	CreatedAt      time.Time `json:"createdAt"                gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Principal returns the identity embedded into credentials issued for u.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// BeforeSave runs the model checks on every create and update.
func (u *User) BeforeSave(*gorm.DB) error { return u.Validate() }

// Validate checks the stored shape of a user.
func (u *User) Validate() error {
	switch {
	case strings.TrimSpace(u.Name) == "":
		return &ValidationError{Model: "User", Field: "name", Message: "name is required"}
	case strings.TrimSpace(u.Email) == "":
		return &ValidationError{Model: "User", Field: "email", Message: "email is required"}
	case !strings.Contains(u.Email, "@"):
		return &ValidationError{Model: "User", Field: "email", Message: "email is invalid"}
	case u.Password == "":
		return &ValidationError{Model: "User", Field: "password", Message: "password is required"}
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return &ValidationError{Model: "User", Field: "role", Message: "role must be one of user, admin"}
	}
	return nil
}
