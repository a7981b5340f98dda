package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blogsphere/internal/models"
	"blogsphere/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getRoleFn       func(context.Context, string) (*models.Role, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int) ([]models.User, error)
	touchFn         func(context.Context, uint, time.Time) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetRole(ctx context.Context, name string) (*models.Role, error) {
	return s.getRoleFn(ctx, name)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Touch(ctx context.Context, id uint, at time.Time) error {
	return s.touchFn(ctx, id, at)
}

// noopUserRepo resolves the users in byName, addressed by lower-case name.
func noopUserRepo(users ...*models.User) *userRepoStub {
	byName := map[string]*models.User{}
	byID := map[uint]*models.User{}
	for _, u := range users {
		byName[u.Username] = u
		byID[u.ID] = u
	}
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, name string) (*models.User, error) {
			if u, ok := byName[name]; ok {
				return u, nil
			}
			return nil, models.NewNotFoundError("User", name)
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return &models.User{}, nil },
		getRoleFn: func(_ context.Context, name string) (*models.Role, error) {
			return &models.Role{ID: 1, Name: name}, nil
		},
		createFn: func(context.Context, *models.User) error { return nil },
		updateFn: func(context.Context, *models.User) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
		listFn:   func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		touchFn:  func(context.Context, uint, time.Time) error { return nil },
	}
}

// followRepoStub is an in-memory repository.FollowRepository.
type followRepoStub struct {
	mu        sync.Mutex
	edges     [][2]uint
	at        []time.Time
	err       error
	listCalls int
}

func (s *followRepoStub) index(followerID, followedID uint) int {
	for i, e := range s.edges {
		if e[0] == followerID && e[1] == followedID {
			return i
		}
	}
	return -1
}

func (s *followRepoStub) IsFollowing(_ context.Context, followerID, followedID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(followerID, followedID) >= 0, s.err
}

func (s *followRepoStub) Create(_ context.Context, followerID, followedID uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.index(followerID, followedID) >= 0 {
		return false, nil
	}
	s.edges = append(s.edges, [2]uint{followerID, followedID})
	s.at = append(s.at, at)
	return true, nil
}

func (s *followRepoStub) Delete(_ context.Context, followerID, followedID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	i := s.index(followerID, followedID)
	if i < 0 {
		return false, nil
	}
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	s.at = append(s.at[:i], s.at[i+1:]...)
	return true, nil
}

func (s *followRepoStub) list(near, far int, userID uint, limit, offset int) []models.FollowEntry {
	s.listCalls++
	out := []models.FollowEntry{}
	for i, e := range s.edges {
		if e[near] == userID {
			out = append(out, models.FollowEntry{User: models.UserSummary{ID: e[far]}, CreatedAt: s.at[i]})
		}
	}
	if offset >= len(out) {
		return []models.FollowEntry{}
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *followRepoStub) Followers(_ context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error) {
	return s.list(1, 0, userID, limit, offset), s.err
}

func (s *followRepoStub) Followed(_ context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error) {
	return s.list(0, 1, userID, limit, offset), s.err
}

func (s *followRepoStub) count(side int, userID uint) int64 {
	var n int64
	for _, e := range s.edges {
		if e[side] == userID {
			n++
		}
	}
	return n
}

func (s *followRepoStub) CountFollowers(_ context.Context, userID uint) (int64, error) {
	return s.count(1, userID), s.err
}

func (s *followRepoStub) CountFollowed(_ context.Context, userID uint) (int64, error) {
	return s.count(0, userID), s.err
}

func (s *followRepoStub) FollowedIDs(_ context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	for _, e := range s.edges {
		if e[0] == userID {
			ids = append(ids, e[1])
		}
	}
	return ids, s.err
}

// postRepoStub is an in-memory repository.PostRepository that joins against
// a followRepoStub for the followed queries.
type postRepoStub struct {
	posts   []*models.Post
	follows *followRepoStub
	nextID  uint

	updateFn func(context.Context, *models.Post) error
	deleted  []uint
}

func newPostRepoStub(follows *followRepoStub, posts ...*models.Post) *postRepoStub {
	s := &postRepoStub{follows: follows}
	for _, p := range posts {
		s.add(p)
	}
	return s
}

func (s *postRepoStub) add(p *models.Post) {
	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	s.posts = append(s.posts, p)
}

func (s *postRepoStub) filter(keep func(*models.Post) bool) []*models.Post {
	out := []*models.Post{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func window(posts []*models.Post, limit, offset int) []*models.Post {
	if offset >= len(posts) {
		return []*models.Post{}
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}

func (s *postRepoStub) followedBy(followerID uint) func(*models.Post) bool {
	return func(p *models.Post) bool {
		return s.follows != nil && s.follows.index(followerID, p.UserID) >= 0
	}
}

func (s *postRepoStub) Create(_ context.Context, post *models.Post) error {
	s.add(post)
	return nil
}

func (s *postRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("Post", id)
}

func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, post)
	}
	for i, p := range s.posts {
		if p.ID == post.ID {
			cp := *post
			s.posts[i] = &cp
			return nil
		}
	}
	return models.NewNotFoundError("Post", post.ID)
}

func (s *postRepoStub) Delete(_ context.Context, id uint) error {
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return models.NewNotFoundError("Post", id)
}

func (s *postRepoStub) Count(context.Context) (int64, error) {
	return int64(len(s.posts)), nil
}

func (s *postRepoStub) List(_ context.Context, limit, offset int) ([]*models.Post, error) {
	return window(s.filter(func(*models.Post) bool { return true }), limit, offset), nil
}

func (s *postRepoStub) CountByAuthor(_ context.Context, userID uint) (int64, error) {
	return int64(len(s.filter(func(p *models.Post) bool { return p.UserID == userID }))), nil
}

func (s *postRepoStub) GetByUserID(_ context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return window(s.filter(func(p *models.Post) bool { return p.UserID == userID }), limit, offset), nil
}

func (s *postRepoStub) CountByAuthors(_ context.Context, authorIDs []uint) (int64, error) {
	in := map[uint]bool{}
	for _, id := range authorIDs {
		in[id] = true
	}
	return int64(len(s.filter(func(p *models.Post) bool { return in[p.UserID] }))), nil
}

func (s *postRepoStub) CountFollowedPosts(_ context.Context, followerID uint) (int64, error) {
	return int64(len(s.filter(s.followedBy(followerID)))), nil
}

func (s *postRepoStub) ListFollowedPosts(_ context.Context, followerID uint, limit, offset int) ([]*models.Post, error) {
	return window(s.filter(s.followedBy(followerID)), limit, offset), nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

type published struct {
	recipient uint
	event     notifications.Event
}

func (p *recordingPublisher) Publish(_ context.Context, recipientID uint, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{recipientID, ev})
	return p.err
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func testUser(id uint, name, role string) *models.User {
	return &models.User{ID: id, Username: name, Email: name + "@example.com", Role: models.Role{Name: role}}
}

func testPost(id, author uint, minutes int) *models.Post {
	at := testNow.Add(time.Duration(minutes) * time.Minute)
	return &models.Post{ID: id, UserID: author, Body: "post body", CreatedAt: at, UpdatedAt: at}
}

func postIDs(posts []*models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
