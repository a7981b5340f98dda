// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Built-in role names. Rows are inserted by the initial migration.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Role groups users by permission level.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// CanWrite reports whether members of the role may author and edit posts.
func (r Role) CanWrite() bool {
	return r.Name == RoleUser || r.CanModerate()
}

// CanModerate reports whether members of the role may edit other people's content.
func (r Role) CanModerate() bool {
	return r.Name == RoleModerator || r.Name == RoleAdmin
}

// User is an identity: the author of posts and a node of the follow graph.
// Username is stored lower-cased and is what URLs address users by.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	RoleID     uint      `gorm:"not null;index" json:"role_id"`
	Role       Role      `gorm:"foreignKey:RoleID" json:"role"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Avatar     string    `json:"avatar"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserSummary is the trimmed user shape embedded in listings.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the listing view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// UserProfile is a user together with follow-graph cardinalities.
type UserProfile struct {
	User
	FollowersCount int64 `json:"followers_count"`
	FollowedCount  int64 `json:"followed_count"`
}
