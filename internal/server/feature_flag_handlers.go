package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Feature flags
// @Description Configured flags and their state for the calling admin
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool,roomScopedFanout=bool}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":              map[string]string{},
			"evaluated":        map[string]bool{},
			"roomScopedFanout": false,
		})
	}

	return c.JSON(fiber.Map{
		"raw":              s.featureFlags.Raw(),
		"evaluated":        s.featureFlags.Snapshot(currentUserID(c)),
		"roomScopedFanout": s.hub.RoomScoped(),
	})
}
