package feed

import (
	"container/heap"
	"context"

	"blogsphere/internal/models"
)

// AuthorSource reads one author's posts in feed order.
type AuthorSource interface {
	CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
}

// Merged returns the sequence of posts by authorIDs, built by merging each
// author's already-ordered stream. It issues one query per author per Slice
// and suits small followed sets or stores without join support.
func Merged(src AuthorSource, authorIDs []uint) Sequence {
	if len(authorIDs) == 0 {
		return Empty
	}
	ids := make([]uint, len(authorIDs))
	copy(ids, authorIDs)
	return &mergedSequence{src: src, authorIDs: ids}
}

type mergedSequence struct {
	src       AuthorSource
	authorIDs []uint
}

func (s *mergedSequence) Count(ctx context.Context) (int, error) {
	n, err := s.src.CountByAuthors(ctx, s.authorIDs)
	return int(n), err
}

func (s *mergedSequence) Slice(ctx context.Context, start, stop int) ([]*models.Post, error) {
	if stop <= start {
		return nil, nil
	}

	// The first stop posts of the merge are among the first stop posts of
	// every stream.
	streams := make([][]*models.Post, 0, len(s.authorIDs))
	for _, id := range s.authorIDs {
		posts, err := s.src.GetByUserID(ctx, id, stop, 0)
		if err != nil {
			return nil, err
		}
		if len(posts) > 0 {
			streams = append(streams, posts)
		}
	}

	merged := Merge(stop, streams...)
	if start >= len(merged) {
		return nil, nil
	}
	return merged[start:], nil
}

// Merge combines streams that are each in feed order into one feed-ordered
// slice holding at most limit posts. limit <= 0 means no limit.
func Merge(limit int, streams ...[]*models.Post) []*models.Post {
	total := 0
	h := make(cursorHeap, 0, len(streams))
	for _, s := range streams {
		if len(s) == 0 {
			continue
		}
		total += len(s)
		h = append(h, &cursor{posts: s})
	}
	if limit <= 0 || limit > total {
		limit = total
	}
	heap.Init(&h)

	out := make([]*models.Post, 0, limit)
	for len(out) < limit && h.Len() > 0 {
		c := h[0]
		out = append(out, c.head())
		c.pos++
		if c.pos == len(c.posts) {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}
	return out
}

type cursor struct {
	posts []*models.Post
	pos   int
}

func (c *cursor) head() *models.Post { return c.posts[c.pos] }

type cursorHeap []*cursor

func (h cursorHeap) Len() int           { return len(h) }
func (h cursorHeap) Less(i, j int) bool { return h[i].head().Before(h[j].head()) }
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
