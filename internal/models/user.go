// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account that can author posts.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsPrivate    bool      `gorm:"not null;default:false" json:"is_private"`
	CreatedAt    time.Time `json:"created_at"`
	Posts        []Post    `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// CanView reports whether u may read posts written by author.
// A nil receiver is an anonymous viewer.
func (u *User) CanView(author *User) bool {
	if author == nil {
		return false
	}
	if !author.IsPrivate {
		return true
	}
	return u != nil && u.ID == author.ID
}
