package models

// Tag is a label that can be attached to posts.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:50;not null;uniqueIndex" json:"title"`
	Posts []Post `gorm:"many2many:post_tags" json:"-"`
}

// TableName specifies the table name for GORM.
func (Tag) TableName() string {
	return "tags"
}
