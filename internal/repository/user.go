// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"blogsphere/internal/cache"
	"blogsphere/internal/models"
	"blogsphere/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetRole(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Touch(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		err := readDB(r.db).WithContext(ctx).Preload("Role").First(&user, id).Error
		return translateError(err, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername looks a user up case-insensitively.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" {
		return nil, models.NewNotFoundError("User", username)
	}

	var user models.User
	err := cache.Aside(ctx, cache.UserNameKey(name), &user, cache.UserTTL, func() error {
		err := readDB(r.db).WithContext(ctx).Preload("Role").Where("username = ?", name).First(&user).Error
		return translateError(err, "User", username)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := readDB(r.db).WithContext(ctx).Preload("Role").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translateError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := readDB(r.db).WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translateError(err, "Role", name)
	}
	return &role, nil
}

// Create inserts user. Username and email are stored lower-cased; a clash on
// either is reported as ALREADY_EXISTS.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := r.db.WithContext(ctx).Omit("Role").Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, "User", user.Username)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Role").Save(user).Error; err != nil {
		return translateError(err, "User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID, user.Username)
	return nil
}

// Delete removes the user together with every follow edge touching it and
// every post it wrote, in one transaction. The explicit deletes match what
// the ON DELETE CASCADE foreign keys do on PostgreSQL.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var user models.User
	var neighbours, postIDs []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return translateError(err, "User", id)
		}

		var followed, followers []uint
		if err := tx.Model(&models.Follow{}).Where("follower_id = ?", id).Pluck("followed_id", &followed).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Model(&models.Follow{}).Where("followed_id = ?", id).Pluck("follower_id", &followers).Error; err != nil {
			return models.NewInternalError(err)
		}
		neighbours = append(followed, followers...)

		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.User{}, id).Error; err != nil {
			return translateError(err, "User", id)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}

	cache.InvalidateUser(ctx, id, user.Username)
	stale := make([]string, 0, len(neighbours)+len(postIDs))
	for _, n := range neighbours {
		stale = append(stale, cache.FollowCountsKey(n))
	}
	for _, p := range postIDs {
		stale = append(stale, cache.PostKey(p))
	}
	cache.Invalidate(ctx, stale...)
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": id, "edges": len(neighbours), "posts": len(postIDs)})
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := window(readDB(r.db).WithContext(ctx).Preload("Role").Order("id ASC"), limit, offset)
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Touch records activity. It bypasses hooks and updated_at, and leaves the
// cached record alone; last_seen_at may lag by up to cache.UserTTL in reads.
func (r *userRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_seen_at", at)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}
