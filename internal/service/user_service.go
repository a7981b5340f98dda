package service

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"blogsphere/internal/models"
	"blogsphere/internal/repository"
)

const (
	maxUsernameLen = 64
	maxBioLen      = 500
)

// usernamePattern is checked after lower-casing.
var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_.]*$`)

// reservedUsernames collide with fixed API paths under /api/users.
var reservedUsernames = map[string]bool{"me": true}

type UserService struct {
	userRepo repository.UserRepository
	clock    Clock
}

type CreateUserInput struct {
	Username string
	Email    string
	Role     string
}

type UpdateProfileInput struct {
	UserID uint
	Bio    *string
	Avatar *string
}

func NewUserService(userRepo repository.UserRepository, clock Clock) *UserService {
	return &UserService{userRepo: userRepo, clock: clockOrSystem(clock)}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetByName looks a user up case-insensitively.
func (s *UserService) GetByName(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// Create registers an identity. Account credentials are managed elsewhere.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if len(username) > maxUsernameLen {
		return nil, models.NewValidationError(fmt.Sprintf("Username too long (max %d characters)", maxUsernameLen))
	}
	if !usernamePattern.MatchString(username) {
		return nil, models.NewValidationError("Usernames must start with a letter and contain only letters, numbers, dots or underscores")
	}
	if reservedUsernames[username] {
		return nil, models.NewValidationError("Username " + username + " is reserved")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, models.NewValidationError("A valid email address is required")
	}

	roleName := strings.ToLower(strings.TrimSpace(in.Role))
	if roleName == "" {
		roleName = models.RoleUser
	}
	role, err := s.userRepo.GetRole(ctx, roleName)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewValidationError("Unknown role " + roleName)
		}
		return nil, err
	}

	now := s.clock.Now()
	user := &models.User{
		Username:   username,
		Email:      email,
		RoleID:     role.ID,
		Role:       *role,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeAlreadyExists) {
			return nil, models.NewAlreadyExistsError("Username or email already registered")
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the fields that are set in in.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > maxBioLen {
			return nil, models.NewValidationError(fmt.Sprintf("Bio too long (max %d characters)", maxBioLen))
		}
		user.Bio = bio
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user with its posts and every follow edge touching it.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.userRepo.Delete(ctx, id)
}

// Touch records that the user was just active.
func (s *UserService) Touch(ctx context.Context, id uint) error {
	return s.userRepo.Touch(ctx, id, s.clock.Now())
}
