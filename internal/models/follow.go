// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Follow is a directed edge: FollowerID follows FollowedID.
// The (follower_id, followed_id) pair is unique and both sides cascade on user delete.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index:idx_follows_follower;check:chk_follows_not_self,follower_id <> followed_id" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index:idx_follows_followed" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowEntry is one row of a followers/followed listing: the identity on the
// other end of the edge and when the edge was created.
type FollowEntry struct {
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// FollowOutcome describes what a follow or unfollow request actually did.
// Repeating a request is not an error; the outcome says it was a no-op.
type FollowOutcome string

const (
	// OutcomeFollowed means a new edge was created.
	OutcomeFollowed FollowOutcome = "followed"
	// OutcomeAlreadyFollowing means the edge already existed.
	OutcomeAlreadyFollowing FollowOutcome = "already_following"
	// OutcomeUnfollowed means an existing edge was removed.
	OutcomeUnfollowed FollowOutcome = "unfollowed"
	// OutcomeNotFollowing means there was no edge to remove.
	OutcomeNotFollowing FollowOutcome = "not_following"
)

// Changed reports whether the outcome mutated the graph.
func (o FollowOutcome) Changed() bool {
	return o == OutcomeFollowed || o == OutcomeUnfollowed
}

// Message returns the user-facing text for the outcome.
func (o FollowOutcome) Message(username string) string {
	switch o {
	case OutcomeFollowed:
		return "You are now following user " + username
	case OutcomeAlreadyFollowing:
		return "You are already following user " + username
	case OutcomeUnfollowed:
		return "You are not following " + username + " anymore"
	case OutcomeNotFollowing:
		return "You are not following user " + username
	default:
		return ""
	}
}
