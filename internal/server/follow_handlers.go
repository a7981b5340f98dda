package server

import (
	"blogsphere/internal/models"

	"github.com/gofiber/fiber/v2"
)

type followResponse struct {
	Outcome   models.FollowOutcome `json:"outcome"`
	Message   string               `json:"message"`
	Following bool                 `json:"following"`
}

func newFollowResponse(outcome models.FollowOutcome, username string) followResponse {
	return followResponse{
		Outcome:   outcome,
		Message:   outcome.Message(username),
		Following: outcome == models.OutcomeFollowed || outcome == models.OutcomeAlreadyFollowing,
	}
}

// Follow handles POST /api/users/:username/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	username := c.Params("username")
	outcome, err := s.followService.Follow(c.UserContext(), currentUserID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newFollowResponse(outcome, username))
}

// Unfollow handles DELETE /api/users/:username/follow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	outcome, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newFollowResponse(outcome, username))
}

// GetFollowStatus handles GET /api/users/:username/follow
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	following, err := s.followService.IsFollowing(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page, size := parsePage(c)
	out, err := s.followService.Followers(c.UserContext(), c.Params("username"), page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetFollowed handles GET /api/users/:username/followed
func (s *Server) GetFollowed(c *fiber.Ctx) error {
	page, size := parsePage(c)
	out, err := s.followService.Followed(c.UserContext(), c.Params("username"), page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
