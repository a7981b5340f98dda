package service

import (
	"context"

	"blogsphere/internal/featureflags"
	"blogsphere/internal/feed"
	"blogsphere/internal/models"
	"blogsphere/internal/observability"
	"blogsphere/internal/pagination"
	"blogsphere/internal/render"
	"blogsphere/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Strategy labels for the feed_build metric.
const (
	strategyQuery = "query"
	strategyMerge = "merge"
)

// FollowCounter reports follow-graph cardinalities for a user.
type FollowCounter interface {
	Counts(ctx context.Context, userID uint) (followers, followed int64, err error)
}

type FeedService struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	counter     FollowCounter
	flags       *featureflags.Manager
	defaultSize int
}

// FeedPage is one rendered page of a feed.
type FeedPage struct {
	Mode       feed.Mode       `json:"mode"`
	Posts      []*models.Post  `json:"posts"`
	Pagination pagination.Page `json:"pagination"`
}

// UserPostsPage is an author's profile with one page of their posts.
type UserPostsPage struct {
	Profile    models.UserProfile `json:"user"`
	Posts      []*models.Post     `json:"posts"`
	Pagination pagination.Page    `json:"pagination"`
}

// NewFeedService wires the feed composer. defaultSize applies when a caller
// asks for a non-positive page size; zero falls back to
// pagination.DefaultPageSize.
func NewFeedService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	counter FollowCounter,
	flags *featureflags.Manager,
	defaultSize int,
) *FeedService {
	if defaultSize < 1 {
		defaultSize = pagination.DefaultPageSize
	}
	return &FeedService{
		userRepo:    userRepo,
		followRepo:  followRepo,
		postRepo:    postRepo,
		counter:     counter,
		flags:       flags,
		defaultSize: defaultSize,
	}
}

// Feed returns the posts visible to identityID in mode, newest first.
// identityID 0 is an anonymous viewer, who always gets the global feed. A
// non-zero identity that does not resolve is NOT_FOUND in followed mode.
func (s *FeedService) Feed(ctx context.Context, identityID uint, mode feed.Mode) (feed.Sequence, error) {
	seq, _, _, err := s.sequence(ctx, identityID, mode)
	return seq, err
}

func (s *FeedService) sequence(ctx context.Context, identityID uint, mode feed.Mode) (feed.Sequence, feed.Mode, string, error) {
	switch mode {
	case feed.ModeGlobal:
		return feed.Global(s.postRepo), feed.ModeGlobal, strategyQuery, nil
	case feed.ModeFollowed:
		if identityID == 0 {
			return feed.Global(s.postRepo), feed.ModeGlobal, strategyQuery, nil
		}
		if _, err := s.userRepo.GetByID(ctx, identityID); err != nil {
			return nil, "", "", err
		}
		if !s.flags.Enabled(featureflags.FeedMerge, identityID) {
			return feed.Followed(s.postRepo, identityID), feed.ModeFollowed, strategyQuery, nil
		}
		ids, err := s.followRepo.FollowedIDs(ctx, identityID)
		if err != nil {
			return nil, "", "", err
		}
		return feed.Merged(s.postRepo, ids), feed.ModeFollowed, strategyMerge, nil
	default:
		return nil, "", "", models.NewValidationError("Unknown feed mode")
	}
}

// Page counts the feed once, computes the page bounds and reads only that
// page. Pages from separate calls may come from different snapshots.
func (s *FeedService) Page(ctx context.Context, identityID uint, mode feed.Mode, page, size int) (out *FeedPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Page",
		attribute.String("feed.mode", string(mode)),
		attribute.Int("feed.page", page))
	defer func() { observability.EndSpan(span, err) }()

	seq, mode, strategy, err := s.sequence(ctx, identityID, mode)
	if err != nil {
		return nil, err
	}
	defer observability.ObserveFeedBuild(string(mode), strategy)()

	posts, p, err := s.read(ctx, seq, page, size)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Mode: mode, Posts: posts, Pagination: p}, nil
}

// UserPosts pages through the posts username wrote.
func (s *FeedService) UserPosts(ctx context.Context, username string, page, size int) (*UserPostsPage, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	followers, followed, err := s.counter.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	posts, p, err := s.read(ctx, feed.Author(s.postRepo, user.ID), page, size)
	if err != nil {
		return nil, err
	}
	return &UserPostsPage{
		Profile:    models.UserProfile{User: *user, FollowersCount: followers, FollowedCount: followed},
		Posts:      posts,
		Pagination: p,
	}, nil
}

func (s *FeedService) read(ctx context.Context, seq feed.Sequence, page, size int) ([]*models.Post, pagination.Page, error) {
	if size < 1 {
		size = s.defaultSize
	}
	total, err := seq.Count(ctx)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	p := pagination.Paginate(total, page, size)
	posts, err := seq.Slice(ctx, p.Start, p.Stop)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	renderBodies(posts)
	return posts, p, nil
}

func renderBodies(posts []*models.Post) {
	for _, p := range posts {
		p.BodyHTML = render.Body(p.Body)
	}
}
