package models

import (
	"encoding/json"
	"time"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	// PostStatusActive marks a post that appears on read paths.
	PostStatusActive PostStatus = "active"
	// PostStatusDeleted marks a soft-deleted post. It is terminal.
	PostStatusDeleted PostStatus = "deleted"
)

// Post represents a blog post.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"size:300;not null;index" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	Category *string `gorm:"size:100" json:"category"`
	AuthorID uint    `gorm:"not null;index" json:"author_id"`
	Author   *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags     []Tag   `gorm:"many2many:post_tags" json:"tags"`
	// Updated is true once the post has been edited.
	Updated   bool       `gorm:"not null;default:false" json:"updated"`
	Status    PostStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.Status == PostStatusDeleted
}

// IsOwnedBy reports whether userID authored the post.
func (p *Post) IsOwnedBy(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}

// TagTitles returns the titles of the post's tags.
func (p *Post) TagTitles() []string {
	titles := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		titles = append(titles, t.Title)
	}
	return titles
}

// MarshalJSON exposes the lifecycle status as the "deleted" flag clients expect.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		Deleted bool `json:"deleted"`
	}{
		alias:   alias(p),
		Deleted: p.IsDeleted(),
	})
}

// PostTag is a row of the post/tag join table.
type PostTag struct {
	PostID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}

// TableName specifies the table name for GORM.
func (PostTag) TableName() string {
	return "post_tags"
}
