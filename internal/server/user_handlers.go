package server

import (
	"bytes"
	"io"

	"communityhub/internal/models"
	"communityhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/user/profile
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/user/profile
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,country=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:  currentUserID(c),
		Name:    req.Name,
		Country: req.Country,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(user)
}

// UploadProfilePicture handles POST /api/user/upload-profile-picture
// @Summary Upload a profile picture
// @Description The image is cropped to a 256x256 square
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profilePicture formData file true "Image (max 5MB)"
// @Success 200 {object} object{profilePicture=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /user/upload-profile-picture [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	fh, err := c.FormFile("profilePicture")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}
	if fh.Size > service.MaxAvatarBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("File too large (max 5MB)"))
	}

	f, err := fh.Open()
	if err != nil {
		return s.respondAppError(c, models.NewInternalError(err))
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, service.MaxAvatarBytes+1)); err != nil {
		return s.respondAppError(c, models.NewInternalError(err))
	}

	user, err := s.userService.UpdateProfilePicture(c.UserContext(), currentUserID(c),
		fh.Header.Get(fiber.HeaderContentType), buf.Bytes())
	if err != nil {
		return s.respondAppError(c, err)
	}

	var url string
	if user.ProfilePicture != nil {
		url = *user.ProfilePicture
	}
	return c.JSON(fiber.Map{
		"profilePicture": url,
		"user":           user,
	})
}

// ChangePassword handles POST /api/user/change-password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{currentPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /user/change-password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.ChangePassword(c.UserContext(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "Password changed successfully")
}

// DeleteAccount handles DELETE /api/user/account
// @Summary Delete own account
// @Description Removes the account with its posts, comments, reactions, feedback and files
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /user/account [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "Account deleted successfully")
}

// GetMyServers handles GET /api/user/servers
// @Summary Servers granted to the current user
// @Tags servers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ServerGrant
// @Router /user/servers [get]
func (s *Server) GetMyServers(c *fiber.Ctx) error {
	grants, err := s.serverService.ListGrants(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(grants)
}
