package server

import (
	"communityhub/internal/models"
	"communityhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetServers handles GET /api/servers
// @Summary List free servers
// @Description Active servers without their credentials
// @Tags servers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PublicServer
// @Router /servers [get]
func (s *Server) GetServers(c *fiber.Ctx) error {
	servers, err := s.serverService.ListServers(c.UserContext())
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(servers)
}

// GenerateServer handles POST /api/servers/generate
// @Summary Hand out a random free server
// @Tags servers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.FreeServer
// @Failure 404 {object} models.ErrorResponse
// @Router /servers/generate [post]
func (s *Server) GenerateServer(c *fiber.Ctx) error {
	srv, err := s.serverService.Generate(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(srv)
}

// AdminCreateServer handles POST /api/admin/servers
// @Summary Add a free server
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,host=string,port=int,username=string,password=string,type=string,location=string} true "Server"
// @Success 201 {object} models.FreeServer
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/servers [post]
func (s *Server) AdminCreateServer(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		Type     string `json:"type"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	srv, err := s.serverService.CreateServer(c.UserContext(), service.CreateServerInput{
		CreatedByID: currentUserID(c),
		Name:        req.Name,
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		Password:    req.Password,
		Type:        req.Type,
		Location:    req.Location,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(srv)
}

// AdminDeleteServer handles DELETE /api/admin/servers/:id
// @Summary Deactivate a free server
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Server ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/servers/{id} [delete]
func (s *Server) AdminDeleteServer(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	if err := s.serverService.DeactivateServer(c.UserContext(), id); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "Server deleted successfully")
}
