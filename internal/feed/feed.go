// Package feed defines the post sequences the feed composer hands out.
//
// A Sequence is lazy and restartable: nothing is read until Count or Slice
// is called, and every call goes back to storage. Within one request callers
// count once and slice once; pages read in different requests may observe
// different snapshots.
package feed

import (
	"context"
	"fmt"
	"strings"

	"blogsphere/internal/models"
)

// Mode selects which posts a feed is built from.
type Mode string

const (
	// ModeGlobal is every post in the store.
	ModeGlobal Mode = "all"
	// ModeFollowed is posts written by identities the viewer follows.
	ModeFollowed Mode = "followed"
)

// ParseMode maps a request value to a Mode. Empty input means ModeGlobal.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeGlobal, "global":
		return ModeGlobal, nil
	case ModeFollowed:
		return ModeFollowed, nil
	default:
		return "", fmt.Errorf("unknown feed mode %q", raw)
	}
}

// Sequence is a finite, ordered view over posts: newest first, ties broken
// by ascending id.
type Sequence interface {
	Count(ctx context.Context) (int, error)
	// Slice returns the posts in positions [start, stop). Ranges past the
	// end are truncated.
	Slice(ctx context.Context, start, stop int) ([]*models.Post, error)
}

// Empty is the sequence with no posts.
var Empty Sequence = emptySequence{}

type emptySequence struct{}

func (emptySequence) Count(context.Context) (int, error) { return 0, nil }

func (emptySequence) Slice(context.Context, int, int) ([]*models.Post, error) { return nil, nil }

// GlobalSource lists every post in feed order.
type GlobalSource interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// FollowedSource lists posts by the authors a follower follows, with the
// ordering pushed down into the store.
type FollowedSource interface {
	CountFollowedPosts(ctx context.Context, followerID uint) (int64, error)
	ListFollowedPosts(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, error)
}

// Global returns the sequence of every post.
func Global(src GlobalSource) Sequence {
	return &globalSequence{src: src}
}

type globalSequence struct {
	src GlobalSource
}

func (s *globalSequence) Count(ctx context.Context) (int, error) {
	n, err := s.src.Count(ctx)
	return int(n), err
}

func (s *globalSequence) Slice(ctx context.Context, start, stop int) ([]*models.Post, error) {
	if stop <= start {
		return nil, nil
	}
	return s.src.List(ctx, stop-start, start)
}

// Followed returns the sequence of posts by authors followerID follows,
// resolved with a single ordered query per call.
func Followed(src FollowedSource, followerID uint) Sequence {
	return &followedSequence{src: src, followerID: followerID}
}

type followedSequence struct {
	src        FollowedSource
	followerID uint
}

func (s *followedSequence) Count(ctx context.Context) (int, error) {
	n, err := s.src.CountFollowedPosts(ctx, s.followerID)
	return int(n), err
}

func (s *followedSequence) Slice(ctx context.Context, start, stop int) ([]*models.Post, error) {
	if stop <= start {
		return nil, nil
	}
	return s.src.ListFollowedPosts(ctx, s.followerID, stop-start, start)
}

// Author returns the sequence of posts written by authorID.
func Author(src AuthorSource, authorID uint) Sequence {
	return &authorSequence{src: src, authorID: authorID}
}

type authorSequence struct {
	src      AuthorSource
	authorID uint
}

func (s *authorSequence) Count(ctx context.Context) (int, error) {
	n, err := s.src.CountByAuthors(ctx, []uint{s.authorID})
	return int(n), err
}

func (s *authorSequence) Slice(ctx context.Context, start, stop int) ([]*models.Post, error) {
	if stop <= start {
		return nil, nil
	}
	return s.src.GetByUserID(ctx, s.authorID, stop-start, start)
}
