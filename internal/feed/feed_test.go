package feed

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"blogsphere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func post(id, author uint, minutes int) *models.Post {
	return &models.Post{ID: id, UserID: author, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func ids(posts []*models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

// authorStore keeps posts per author in feed order, like the post repository.
type authorStore struct {
	byAuthor map[uint][]*models.Post
	calls    int
	err      error
}

func newAuthorStore(posts ...*models.Post) *authorStore {
	s := &authorStore{byAuthor: map[uint][]*models.Post{}}
	for _, p := range posts {
		s.byAuthor[p.UserID] = append(s.byAuthor[p.UserID], p)
	}
	for _, list := range s.byAuthor {
		sort.Slice(list, func(i, j int) bool { return list[i].Before(list[j]) })
	}
	return s
}

func (s *authorStore) CountByAuthors(_ context.Context, authorIDs []uint) (int64, error) {
	var n int64
	for _, id := range authorIDs {
		n += int64(len(s.byAuthor[id]))
	}
	return n, nil
}

func (s *authorStore) GetByUserID(_ context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	list := s.byAuthor[userID]
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{
		"":          ModeGlobal,
		"all":       ModeGlobal,
		"GLOBAL":    ModeGlobal,
		"followed":  ModeFollowed,
		" Followed": ModeFollowed,
	} {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseMode("friends")
	assert.Error(t, err)
}

func TestMerge_OrdersNewestFirstWithIDTieBreak(t *testing.T) {
	a := []*models.Post{post(5, 1, 30), post(2, 1, 10), post(1, 1, 0)}
	b := []*models.Post{post(6, 2, 30), post(4, 2, 20), post(3, 2, 10)}
	c := []*models.Post{post(7, 3, 25)}

	got := Merge(0, a, b, c)
	assert.Equal(t, []uint{5, 6, 7, 4, 2, 3, 1}, ids(got))

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "timestamps must be non-increasing")
	}
}

func TestMerge_LimitAndEmptyStreams(t *testing.T) {
	a := []*models.Post{post(3, 1, 20), post(1, 1, 0)}
	b := []*models.Post{post(2, 2, 10)}

	assert.Equal(t, []uint{3, 2}, ids(Merge(2, a, nil, b)))
	assert.Empty(t, Merge(5))
	assert.Len(t, Merge(100, a, b), 3)
}

func TestMergedSequence(t *testing.T) {
	store := newAuthorStore(
		post(1, 1, 0), post(2, 2, 5), post(3, 1, 10),
		post(4, 3, 15), post(5, 2, 20), post(6, 1, 20),
	)
	ctx := context.Background()
	seq := Merged(store, []uint{1, 2})

	n, err := seq.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page1, err := seq.Slice(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 6}, ids(page1))

	page2, err := seq.Slice(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 2}, ids(page2))

	tail, err := seq.Slice(ctx, 4, 6)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids(tail))

	past, err := seq.Slice(ctx, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, past)

	again, err := seq.Slice(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, ids(page1), ids(again), "re-slicing must be deterministic")
}

func TestMergedSequence_NoAuthorsIsEmpty(t *testing.T) {
	store := newAuthorStore(post(1, 1, 0))
	seq := Merged(store, nil)

	n, err := seq.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	posts, err := seq.Slice(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, store.calls)
}

func TestMergedSequence_PropagatesStoreError(t *testing.T) {
	store := newAuthorStore(post(1, 1, 0))
	store.err = errors.New("connection reset")

	_, err := Merged(store, []uint{1}).Slice(context.Background(), 0, 10)
	assert.EqualError(t, err, "connection reset")
}

type globalStub struct {
	count       int64
	limit       int
	offset      int
	listInvoked bool
}

func (g *globalStub) Count(context.Context) (int64, error) { return g.count, nil }

func (g *globalStub) List(_ context.Context, limit, offset int) ([]*models.Post, error) {
	g.listInvoked = true
	g.limit, g.offset = limit, offset
	return []*models.Post{post(1, 1, 0)}, nil
}

func TestGlobalSequence_TranslatesRangeToLimitOffset(t *testing.T) {
	stub := &globalStub{count: 42}
	seq := Global(stub)

	n, err := seq.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = seq.Slice(context.Background(), 20, 30)
	require.NoError(t, err)
	assert.Equal(t, 10, stub.limit)
	assert.Equal(t, 20, stub.offset)
}

func TestGlobalSequence_EmptyRangeSkipsStore(t *testing.T) {
	stub := &globalStub{}
	posts, err := Global(stub).Slice(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, stub.listInvoked)
}

func TestAuthorSequence(t *testing.T) {
	store := newAuthorStore(post(1, 1, 0), post(2, 2, 5), post(3, 1, 10), post(4, 1, 20))
	seq := Author(store, 1)
	ctx := context.Background()

	n, err := seq.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := seq.Slice(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids(page))

	empty, err := seq.Slice(ctx, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 1, store.calls)
}
