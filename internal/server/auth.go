package server

import (
	"context"
	"errors"
	"log/slog"

	"blogsphere/internal/middleware"
	"blogsphere/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired resolves the caller from the bearer token, rejects anonymous
// requests and records the caller's activity.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserIDFromRequest(c, s.config.JWTSecret)
		if err != nil {
			msg := "Invalid or expired token"
			switch {
			case errors.Is(err, middleware.ErrNoToken):
				msg = "Authorization required"
			case errors.Is(err, middleware.ErrBadHeader):
				msg = "Invalid authorization header format"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		ctx := middleware.WithUserID(c.UserContext(), userID)
		if err := s.touch(ctx, userID); err != nil {
			if models.IsNotFound(err) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Unknown user"))
			}
			return respondError(c, err)
		}

		c.Locals("userID", userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// optionalUserID resolves the caller if a valid token is present. Any
// failure yields the anonymous identity 0, including a token whose user no
// longer exists.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	userID, err := middleware.UserIDFromRequest(c, s.config.JWTSecret)
	if err != nil {
		return 0, false
	}
	if _, err := s.userService.GetByID(c.UserContext(), userID); err != nil {
		if !models.IsNotFound(err) {
			middleware.Logger.WarnContext(c.UserContext(), "failed to resolve caller", slog.String("error", err.Error()))
		}
		return 0, false
	}
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return userID, true
}

func (s *Server) touch(ctx context.Context, userID uint) error {
	err := s.userService.Touch(ctx, userID)
	if err != nil && !models.IsNotFound(err) {
		middleware.Logger.WarnContext(ctx, "failed to record activity", slog.String("error", err.Error()))
	}
	return err
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
