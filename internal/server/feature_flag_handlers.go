package server

import (
	"blogsphere/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/admin/feature-flags. It returns the
// configured flags and their evaluation for the calling admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	user, err := s.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if user.Role.Name != models.RoleAdmin {
		return respondError(c, models.NewForbiddenError("Admin role required"))
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
