// Package bootstrap wires the process-level dependencies shared by the
// binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blogsphere/internal/cache"
	"blogsphere/internal/config"
	"blogsphere/internal/database"
	"blogsphere/internal/middleware"
	"blogsphere/internal/models"
	"blogsphere/internal/repository"
	"blogsphere/internal/seed"
	"blogsphere/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipDevBootstrap disables the development admin and seed steps even
	// when configured.
	SkipDevBootstrap bool
}

// InitRuntime connects to DB and Redis and, in development, ensures the
// admin identity and seed preset from the config.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Nil when Redis is unreachable; the cache then passes through.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SkipDevBootstrap {
		return db, r, nil
	}
	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	if err := seedDevPreset(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed development data: %w", err)
	}
	return db, r, nil
}

func isDevelopment(cfg *config.Config) bool {
	return cfg != nil && strings.EqualFold(cfg.Env, "development")
}

// EnsureDevAdmin creates the configured admin identity, or promotes an
// existing user of that name to admin. It does nothing outside development
// or when DEV_BOOTSTRAP_ADMIN is off.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if db == nil || !isDevelopment(cfg) || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.ToLower(strings.TrimSpace(cfg.DevAdminUsername))
	if username == "" {
		username = "admin"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@blogsphere.local"
	}

	repo := repository.NewUserRepository(db)
	users := service.NewUserService(repo, service.SystemClock)
	existing, err := users.GetByName(ctx, username)
	switch {
	case err == nil:
		if existing.Role.Name == models.RoleAdmin {
			return nil
		}
		if err := promote(ctx, repo, existing); err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "development admin promoted", slog.String("username", username))
		return nil
	case !models.IsNotFound(err):
		return err
	}

	if _, err := users.Create(ctx, service.CreateUserInput{
		Username: username,
		Email:    email,
		Role:     models.RoleAdmin,
	}); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development admin created",
		slog.String("username", username), slog.String("email", email))
	return nil
}

func promote(ctx context.Context, repo repository.UserRepository, user *models.User) error {
	role, err := repo.GetRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("load admin role: %w", err)
	}
	user.RoleID = role.ID
	user.Role = *role
	return repo.Update(ctx, user)
}

// seedDevPreset applies DEV_SEED_PRESET once: it is skipped when any post
// already exists.
func seedDevPreset(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if !isDevelopment(cfg) || cfg.DevSeedPreset == "" {
		return nil
	}

	var posts int64
	if err := db.WithContext(ctx).Model(&models.Post{}).Count(&posts).Error; err != nil {
		return err
	}
	if posts > 0 {
		middleware.Logger.InfoContext(ctx, "development seed skipped, data present", slog.Int64("posts", posts))
		return nil
	}

	preset, err := seed.FindPreset(seed.BuiltinPresets(), cfg.DevSeedPreset)
	if err != nil {
		return err
	}
	_, err = seed.NewSeeder(db, seed.Options{}).Apply(ctx, preset)
	return err
}
