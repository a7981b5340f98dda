package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blogsphere/internal/cache"
	"blogsphere/internal/config"
	"blogsphere/internal/database"
	"blogsphere/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// setupMockDB returns a Postgres-dialect GORM handle backed by sqlmock, for
// asserting the SQL a repository issues.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLite returns a fresh in-memory database with the full schema and the
// built-in roles.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{Env: "test", DBSchemaMode: database.SchemaModeAuto}
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))
	return db
}

// setupRedis points the cache at a miniredis instance for the test.
func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func mustCreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("name = ?", models.RoleUser).First(&role).Error)
	u := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		RoleID:   role.ID,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func mustCreatePost(t *testing.T, db *gorm.DB, author *models.User, body string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Body: body, UserID: author.ID, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, db.Omit("User").Create(p).Error)
	return p
}

func postIDs(posts []*models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
