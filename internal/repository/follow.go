package repository

import (
	"context"
	"time"

	"blogsphere/internal/models"
	"blogsphere/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository persists the directed follow graph.
type FollowRepository interface {
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	// Create adds the edge unless it exists; created reports which happened.
	Create(ctx context.Context, followerID, followedID uint, at time.Time) (created bool, err error)
	// Delete removes the edge if present; deleted reports whether it was.
	Delete(ctx context.Context, followerID, followedID uint) (deleted bool, err error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error)
	Followed(ctx context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowed(ctx context.Context, userID uint) (int64, error)
	FollowedIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Create(ctx context.Context, followerID, followedID uint, at time.Time) (bool, error) {
	// ON CONFLICT keeps concurrent duplicate requests from racing into a
	// unique violation.
	result := r.db.WithContext(ctx).Exec(
		"INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?) "+
			"ON CONFLICT (follower_id, followed_id) DO NOTHING",
		followerID, followedID, at,
	)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return false, nil
		}
		r.log.LogError(ctx, result.Error, "create")
		return false, translateError(result.Error, "Follow", followedID)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.log.LogCreate(ctx, map[string]interface{}{"follower_id": followerID, "followed_id": followedID})
	return true, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.log.LogDelete(ctx, map[string]interface{}{"follower_id": followerID, "followed_id": followedID})
	return true, nil
}

type followRow struct {
	ID        uint
	Username  string
	Avatar    string
	CreatedAt time.Time
}

// listEdges joins the far end of userID's edges to users, in edge insertion
// order. nearCol is the column holding userID, farCol the other end.
func (r *followRepository) listEdges(ctx context.Context, nearCol, farCol string, userID uint, limit, offset int) ([]models.FollowEntry, error) {
	var rows []followRow
	q := readDB(r.db).WithContext(ctx).
		Table("follows").
		Select("users.id AS id, users.username AS username, users.avatar AS avatar, follows.created_at AS created_at").
		Joins("JOIN users ON users.id = follows."+farCol).
		Where("follows."+nearCol+" = ?", userID).
		Order("follows.id ASC")
	if err := window(q, limit, offset).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	entries := make([]models.FollowEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.FollowEntry{
			User:      models.UserSummary{ID: row.ID, Username: row.Username, Avatar: row.Avatar},
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error) {
	return r.listEdges(ctx, "followed_id", "follower_id", userID, limit, offset)
}

func (r *followRepository) Followed(ctx context.Context, userID uint, limit, offset int) ([]models.FollowEntry, error) {
	return r.listEdges(ctx, "follower_id", "followed_id", userID, limit, offset)
}

func (r *followRepository) count(ctx context.Context, col string, userID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where(col+" = ?", userID).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "followed_id", userID)
}

func (r *followRepository) CountFollowed(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id", userID)
}

func (r *followRepository) FollowedIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("id ASC").
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
