// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"blogsphere/internal/cache"
	"blogsphere/internal/models"
	"blogsphere/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations. Every
// listing is in feed order: created_at descending, then id ascending.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error

	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	CountByAuthor(ctx context.Context, userID uint) (int64, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error)
	CountFollowedPosts(ctx context.Context, followerID uint) (int64, error)
	ListFollowedPosts(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	users UserRepository
	log   *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, users: NewUserRepository(db), log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, "Post", post.ID)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "user_id": post.UserID})
	return nil
}

// GetByID caches the post row alone. The author is attached from the user
// cache, so profile edits show up without waiting for PostTTL.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		err := readDB(r.db).WithContext(ctx).First(&post, id).Error
		return translateError(err, "Post", id)
	})
	if err != nil {
		return nil, err
	}

	author, err := r.users.GetByID(ctx, post.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			cache.Invalidate(ctx, cache.PostKey(id))
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	post.User = *author
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		return translateError(err, "Post", post.ID)
	}
	cache.Invalidate(ctx, cache.PostKey(post.ID))
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": id})
	return nil
}

func (r *postRepository) countWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error) {
	var n int64
	q := readDB(r.db).WithContext(ctx).Model(&models.Post{})
	if query != nil {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) listWhere(ctx context.Context, limit, offset int, query interface{}, args ...interface{}) ([]*models.Post, error) {
	posts := []*models.Post{}
	q := readDB(r.db).WithContext(ctx).Preload("User").Order(feedOrder)
	if query != nil {
		q = q.Where(query, args...)
	}
	if err := window(q, limit, offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, nil)
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.listWhere(ctx, limit, offset, nil)
}

func (r *postRepository) CountByAuthor(ctx context.Context, userID uint) (int64, error) {
	return r.countWhere(ctx, "user_id = ?", userID)
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.listWhere(ctx, limit, offset, "posts.user_id = ?", userID)
}

func (r *postRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	return r.countWhere(ctx, "user_id IN ?", authorIDs)
}

const followedAuthors = "posts.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)"

func (r *postRepository) CountFollowedPosts(ctx context.Context, followerID uint) (int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "CountFollowedPosts", "posts")
	n, err := r.countWhere(ctx, followedAuthors, followerID)
	observability.EndSpan(span, err)
	return n, err
}

func (r *postRepository) ListFollowedPosts(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListFollowedPosts", "posts")
	posts, err := r.listWhere(ctx, limit, offset, followedAuthors, followerID)
	observability.EndSpan(span, err)
	return posts, err
}
