package server

import (
	"github.com/gofiber/fiber/v2"
)

// AdminListUsers handles GET /api/admin/users
// @Summary List all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(users)
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete a user
// @Description The owner admin and the caller's own account cannot be removed here
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), currentUserID(c), id); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "User deleted successfully")
}

// AdminToggleAdmin handles PATCH /api/admin/users/:id/toggle-admin
// @Summary Promote or demote a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/toggle-admin [patch]
func (s *Server) AdminToggleAdmin(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	user, err := s.userService.ToggleAdmin(c.UserContext(), id)
	if err != nil {
		return s.respondAppError(c, err)
	}

	msg := "User demoted from admin successfully"
	if user.IsAdmin {
		msg = "User promoted to admin successfully"
	}
	return c.JSON(fiber.Map{
		"message": msg,
		"user":    user,
	})
}
