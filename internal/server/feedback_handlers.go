package server

import (
	"communityhub/internal/models"
	"communityhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPublicFeedback handles GET /api/feedback
// @Summary Public feedback board
// @Tags feedback
// @Produce json
// @Success 200 {array} models.PublicFeedback
// @Router /feedback [get]
func (s *Server) GetPublicFeedback(c *fiber.Ctx) error {
	items, err := s.feedbackService.ListPublic(c.UserContext())
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(items)
}

// SubmitFeedback handles POST /api/feedback
// @Summary Submit feedback
// @Description Feedback is public unless isPublic is false
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{rating=int,message=string,isPublic=bool} true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} models.ErrorResponse
// @Router /feedback [post]
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		Rating   int    `json:"rating"`
		Message  string `json:"message"`
		IsPublic *bool  `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	public := true
	if req.IsPublic != nil {
		public = *req.IsPublic
	}

	fb, err := s.feedbackService.Submit(c.UserContext(), service.CreateFeedbackInput{
		User:     currentUser(c),
		Rating:   req.Rating,
		Message:  req.Message,
		IsPublic: public,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}

// AdminListFeedback handles GET /api/admin/feedback
// @Summary All feedback including private entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Feedback
// @Router /admin/feedback [get]
func (s *Server) AdminListFeedback(c *fiber.Ctx) error {
	items, err := s.feedbackService.ListAll(c.UserContext())
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(items)
}
