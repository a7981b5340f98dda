// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is authored content. ImageURL is a reference only; storage lives elsewhere.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Body     string  `gorm:"type:text;not null" json:"body"`
	ImageURL *string `json:"image_url,omitempty"`
	UserID   uint    `gorm:"not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	User     User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	// BodyHTML is not persisted; filled by the render package before responses
	BodyHTML  string    `gorm:"-" json:"body_html,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_posts_user_created,priority:2;index:idx_posts_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// Before reports whether p sorts before q in feed order:
// newest first, then lower id first among equal timestamps.
func (p *Post) Before(q *Post) bool {
	if !p.CreatedAt.Equal(q.CreatedAt) {
		return p.CreatedAt.After(q.CreatedAt)
	}
	return p.ID < q.ID
}
