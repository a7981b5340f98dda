package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	UserNameKeyPrefix     = "user:name:%s"
	FollowCountsKeyPrefix = "user:%d:follow_counts"
	PostKeyPrefix         = "post:%d"
)

const (
	UserTTL         = 5 * time.Minute
	FollowCountsTTL = 2 * time.Minute
	PostTTL         = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// UserNameKey maps a username to the cached id lookup; names are case-insensitive.
func UserNameKey(username string) string {
	return fmt.Sprintf(UserNameKeyPrefix, strings.ToLower(username))
}

func FollowCountsKey(userID uint) string {
	return fmt.Sprintf(FollowCountsKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Invalidate deletes keys. Errors are ignored; entries expire by TTL anyway.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops every entry derived from the user record.
func InvalidateUser(ctx context.Context, userID uint, username string) {
	keys := []string{UserKey(userID), FollowCountsKey(userID)}
	if username != "" {
		keys = append(keys, UserNameKey(username))
	}
	Invalidate(ctx, keys...)
}

// InvalidateFollowCounts drops the cached counts of both ends of an edge.
func InvalidateFollowCounts(ctx context.Context, followerID, followedID uint) {
	Invalidate(ctx, FollowCountsKey(followerID), FollowCountsKey(followedID))
}
