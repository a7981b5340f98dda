package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"blogsphere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create(t *testing.T) {
	repo := noopUserRepo()
	var saved *models.User
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 5
		saved = u
		return nil
	}
	svc := NewUserService(repo, fixedClock{testNow})

	user, err := svc.Create(context.Background(), CreateUserInput{Username: " Alice.B ", Email: "Alice@Example.com"})
	require.NoError(t, err)
	assert.Same(t, saved, user)
	assert.Equal(t, "alice.b", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role.Name)
	assert.True(t, user.LastSeenAt.Equal(testNow))
}

func TestUserService_Create_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   CreateUserInput
	}{
		{"empty username", CreateUserInput{Email: "a@example.com"}},
		{"leading digit", CreateUserInput{Username: "1abc", Email: "a@example.com"}},
		{"space inside", CreateUserInput{Username: "a b", Email: "a@example.com"}},
		{"too long", CreateUserInput{Username: "a" + strings.Repeat("b", 64), Email: "a@example.com"}},
		{"reserved", CreateUserInput{Username: "Me", Email: "me@example.com"}},
		{"bad email", CreateUserInput{Username: "abc", Email: "not-an-email"}},
		{"display-name email", CreateUserInput{Username: "abc", Email: "Bob <bob@example.com>"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewUserService(noopUserRepo(), nil)
			_, err := svc.Create(context.Background(), tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestUserService_Create_RoleAndDuplicates(t *testing.T) {
	repo := noopUserRepo()
	repo.getRoleFn = func(_ context.Context, name string) (*models.Role, error) {
		if name == models.RoleModerator {
			return &models.Role{ID: 2, Name: name}, nil
		}
		return nil, models.NewNotFoundError("Role", name)
	}
	svc := NewUserService(repo, nil)

	user, err := svc.Create(context.Background(), CreateUserInput{Username: "mod", Email: "mod@example.com", Role: "Moderator"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), user.RoleID)

	_, err = svc.Create(context.Background(), CreateUserInput{Username: "x", Email: "x@example.com", Role: "superuser"})
	assertValidationError(t, err)

	repo.createFn = func(context.Context, *models.User) error {
		return models.NewAlreadyExistsError("User already exists")
	}
	_, err = svc.Create(context.Background(), CreateUserInput{Username: "mod", Email: "mod@example.com", Role: "moderator"})
	assertCode(t, err, models.CodeAlreadyExists)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("bio too long", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo(testUser(1, "alice", models.RoleUser)), nil)
		bio := strings.Repeat("x", 501)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Bio: &bio})
		assertValidationError(t, err)
	})

	t.Run("only provided fields change", func(t *testing.T) {
		t.Parallel()
		user := testUser(1, "alice", models.RoleUser)
		user.Bio = "old bio"
		user.Avatar = "old.png"
		repo := noopUserRepo(user)
		var saved *models.User
		repo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(repo, fixedClock{testNow})

		avatar := " new.png "
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Avatar: &avatar})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "old bio", saved.Bio)
		assert.Equal(t, "new.png", saved.Avatar)
		assert.True(t, saved.UpdatedAt.Equal(testNow))
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo(), nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 9})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestUserService_TouchUsesClock(t *testing.T) {
	repo := noopUserRepo()
	var touchedAt time.Time
	var touchedID uint
	repo.touchFn = func(_ context.Context, id uint, at time.Time) error {
		touchedID, touchedAt = id, at
		return nil
	}
	svc := NewUserService(repo, fixedClock{testNow})

	require.NoError(t, svc.Touch(context.Background(), 3))
	assert.Equal(t, uint(3), touchedID)
	assert.True(t, touchedAt.Equal(testNow))
}

func TestUserService_Lookups(t *testing.T) {
	alice := testUser(1, "alice", models.RoleUser)
	svc := NewUserService(noopUserRepo(alice), nil)

	got, err := svc.GetByName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetByID(context.Background(), 2)
	assertCode(t, err, models.CodeNotFound)
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock.Now().Location())
	assert.Equal(t, SystemClock, clockOrSystem(nil))
}
