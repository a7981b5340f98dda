package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Followers int64 `json:"followers"`
	Followed  int64 `json:"followed"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:7", UserKey(7))
	assert.Equal(t, "user:name:alice", UserNameKey("Alice"))
	assert.Equal(t, "user:7:follow_counts", FollowCountsKey(7))
	assert.Equal(t, "post:3", PostKey(3))
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *counts) func() error {
		return func() error {
			calls++
			*dest = counts{Followers: 2, Followed: 1}
			return nil
		}
	}

	var first counts
	require.NoError(t, Aside(ctx, FollowCountsKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, counts{2, 1}, first)
	assert.True(t, mr.Exists(FollowCountsKey(1)))

	var second counts
	require.NoError(t, Aside(ctx, FollowCountsKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, counts{2, 1}, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(FollowCountsKey(1)))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupRedis(t)

	var dest counts
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error { return errors.New("db down") })
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("k"))
}

func TestAside_WithoutClientPassesThrough(t *testing.T) {
	SetClient(nil)

	var dest counts
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisFailureFallsBackToFetch(t *testing.T) {
	mr := setupRedis(t)
	mr.Close()

	var dest counts
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest.Followers = 5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), dest.Followers)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	for _, k := range []string{UserKey(4), UserNameKey("dora"), FollowCountsKey(4), FollowCountsKey(5)} {
		require.NoError(t, mr.Set(k, "x"))
	}

	InvalidateUser(ctx, 4, "Dora")
	assert.False(t, mr.Exists(UserKey(4)))
	assert.False(t, mr.Exists(UserNameKey("dora")))
	assert.False(t, mr.Exists(FollowCountsKey(4)))
	assert.True(t, mr.Exists(FollowCountsKey(5)))

	InvalidateFollowCounts(ctx, 5, 6)
	assert.False(t, mr.Exists(FollowCountsKey(5)))
}
