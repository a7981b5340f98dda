package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blogsphere/internal/middleware"
	"blogsphere/internal/models"
	"blogsphere/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures a Seeder.
type Options struct {
	// BatchSize bounds post inserts per statement. Defaults to 200.
	BatchSize int
	// RandSeed makes runs reproducible. Zero picks a random seed.
	RandSeed int64
	// Now anchors generated timestamps. Defaults to the current time.
	Now time.Time
}

// Result counts what a run wrote.
type Result struct {
	Users   int
	Posts   int
	Follows int
}

// Seeder writes generated data through the repositories, so seeded rows
// obey the same rules as rows written by the API.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	follows repository.FollowRepository
	opts    Options
}

// NewSeeder returns a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	return &Seeder{
		db:      db,
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		opts:    opts,
	}
}

// ClearAll removes every follow, post and user. Roles are kept.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Follow{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "seed data cleared")
	return nil
}

// Apply generates the dataset p describes. Named accounts that already
// exist are reused.
func (s *Seeder) Apply(ctx context.Context, p Preset) (*Result, error) {
	start := time.Now()
	factory := NewFactory(s.opts.RandSeed, s.opts.Now, p.MaxDays)
	res := &Result{}

	users := make([]*models.User, 0, len(p.Accounts)+p.Users)
	for _, a := range p.Accounts {
		u, created, err := s.ensureAccount(ctx, a)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
		users = append(users, u)
	}

	generated, err := s.createUsers(ctx, factory, p.Users)
	res.Users += len(generated)
	if err != nil {
		return res, err
	}
	users = append(users, generated...)

	if res.Posts, err = s.createPosts(ctx, factory, users, p.PostsPerUser); err != nil {
		return res, err
	}
	if res.Follows, err = s.createFollows(ctx, factory, users, p.FollowsPerUser); err != nil {
		return res, err
	}

	middleware.Logger.InfoContext(ctx, "seed preset applied",
		slog.String("preset", p.Name),
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("follows", res.Follows),
		slog.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (s *Seeder) roleID(ctx context.Context, name string) (uint, error) {
	if name == "" {
		name = models.RoleUser
	}
	role, err := s.users.GetRole(ctx, strings.ToLower(name))
	if err != nil {
		return 0, fmt.Errorf("role %q: %w", name, err)
	}
	return role.ID, nil
}

func (s *Seeder) ensureAccount(ctx context.Context, a Account) (*models.User, bool, error) {
	existing, err := s.users.GetByUsername(ctx, a.Username)
	if err == nil {
		return existing, false, nil
	}
	if !models.IsNotFound(err) {
		return nil, false, err
	}

	roleID, err := s.roleID(ctx, a.Role)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		Username: a.Username,
		Email:    a.Email,
		Bio:      a.Bio,
		RoleID:   roleID,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", strings.ToLower(a.Username)),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create account %q: %w", a.Username, err)
	}
	return user, true, nil
}

func (s *Seeder) createUsers(ctx context.Context, f *Factory, n int) ([]*models.User, error) {
	if n == 0 {
		return nil, nil
	}
	roleID, err := s.roleID(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}

	// Generated names carry a per-run suffix so repeated runs do not clash.
	run := s.opts.Now.Unix() % 100000
	out := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := f.BuildUser(f.Username(int(run)*10000+i), func(u *models.User) { u.RoleID = roleID })
		if err := s.users.Create(ctx, user); err != nil {
			if models.HasCode(err, models.CodeAlreadyExists) {
				middleware.Logger.WarnContext(ctx, "skipping duplicate seed user", slog.String("username", user.Username))
				continue
			}
			return out, fmt.Errorf("create user: %w", err)
		}
		out = append(out, user)
	}
	return out, nil
}

func (s *Seeder) createPosts(ctx context.Context, f *Factory, authors []*models.User, perUser int) (int, error) {
	if perUser == 0 || len(authors) == 0 {
		return 0, nil
	}
	posts := make([]*models.Post, 0, len(authors)*perUser)
	for _, author := range authors {
		for j := 0; j < perUser; j++ {
			posts = append(posts, f.BuildPost(author))
		}
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(posts, s.opts.BatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("create posts: %w", err)
	}
	return len(posts), nil
}

// createFollows makes every user follow up to perUser distinct others.
func (s *Seeder) createFollows(ctx context.Context, f *Factory, users []*models.User, perUser int) (int, error) {
	if perUser == 0 || len(users) < 2 {
		return 0, nil
	}
	created := 0
	for i, follower := range users {
		for _, j := range f.Pick(len(users), perUser, i) {
			ok, err := s.follows.Create(ctx, follower.ID, users[j].ID, s.opts.Now)
			if err != nil {
				return created, fmt.Errorf("follow %d -> %d: %w", follower.ID, users[j].ID, err)
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}
