package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"blogsphere/internal/models"
	"blogsphere/internal/observability"
	"blogsphere/internal/render"
	"blogsphere/internal/repository"
)

// DefaultMaxPostLength bounds post bodies when no limit is configured.
const DefaultMaxPostLength = 10000

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	clock     Clock
	maxLength int
}

type CreatePostInput struct {
	AuthorID uint
	Body     string
	ImageURL string
}

type EditPostInput struct {
	EditorID uint
	PostID   uint
	Body     string
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	clock Clock,
	maxLength int,
) *PostService {
	if maxLength < 1 {
		maxLength = DefaultMaxPostLength
	}
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		clock:     clockOrSystem(clock),
		maxLength: maxLength,
	}
}

func (s *PostService) validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", models.NewValidationError("Post body is required")
	}
	if utf8.RuneCountInString(body) > s.maxLength {
		return "", models.NewValidationError(fmt.Sprintf("Post body too long (max %d characters)", s.maxLength))
	}
	return body, nil
}

func validateImageURL(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewValidationError("image_url must be an http(s) URL")
	}
	return &raw, nil
}

// Create stores a new post written by in.AuthorID.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	body, err := s.validateBody(in.Body)
	if err != nil {
		return nil, err
	}
	imageURL, err := validateImageURL(in.ImageURL)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	post := &models.Post{
		Body:      body,
		ImageURL:  imageURL,
		UserID:    in.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostWrites.WithLabelValues("create").Inc()

	return s.Get(ctx, post.ID)
}

// Get returns a post with its author and rendered body.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.BodyHTML = render.Body(post.Body)
	return post, nil
}

// Edit replaces the body of a post. Authors whose role can write may edit
// their own posts; moderators and admins may edit any post.
func (s *PostService) Edit(ctx context.Context, in EditPostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	editor, err := s.userRepo.GetByID(ctx, in.EditorID)
	if err != nil {
		return nil, err
	}
	switch {
	case post.UserID == editor.ID && !editor.Role.CanWrite():
		return nil, models.NewForbiddenError("Your role cannot edit posts")
	case post.UserID != editor.ID && !editor.Role.CanModerate():
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	body, err := s.validateBody(in.Body)
	if err != nil {
		return nil, err
	}
	post.Body = body
	post.UpdatedAt = s.clock.Now()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	observability.PostWrites.WithLabelValues("edit").Inc()

	post.BodyHTML = render.Body(post.Body)
	return post, nil
}

// Delete removes a post. Only its author or an admin may do so.
func (s *PostService) Delete(ctx context.Context, editorID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != editorID {
		editor, err := s.userRepo.GetByID(ctx, editorID)
		if err != nil {
			return err
		}
		if editor.Role.Name != models.RoleAdmin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	observability.PostWrites.WithLabelValues("delete").Inc()
	return nil
}
