package server

import (
	"blogsphere/internal/feed"
	"blogsphere/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?mode=all|followed&page=&per_page=
// Anonymous callers always get the global feed.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	mode, err := feed.ParseMode(c.Query("mode"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("mode must be 'all' or 'followed'"))
	}
	page, size := parsePage(c)
	userID, _ := s.optionalUserID(c)

	out, err := s.feedService.Page(c.UserContext(), userID, mode, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
