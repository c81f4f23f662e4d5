package server

import (
	"io"
	"mime/multipart"
	"strconv"

	"communityhub/internal/models"
	"communityhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Newest first, 20 per page, with author, files, reactions and comments
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Multipart form with content, isAnonymous and up to 10 files of at most 10MB each
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param content formData string true "Post body"
// @Param isAnonymous formData bool false "Hide the author from other members"
// @Param files formData file false "Attachments"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if form, err := c.MultipartForm(); err == nil {
		in.Content = firstValue(form, "content")
		in.IsAnonymous, _ = strconv.ParseBool(firstValue(form, "isAnonymous"))
		for _, key := range []string{"files", "files[]"} {
			for _, fh := range form.File[key] {
				in.Attachments = append(in.Attachments, attachmentFromHeader(fh))
			}
		}
	} else {
		// plain JSON or urlencoded posts carry no attachments
		var req struct {
			Content     string `json:"content" form:"content"`
			IsAnonymous bool   `json:"isAnonymous" form:"isAnonymous"`
		}
		if parseErr := c.BodyParser(&req); parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Content = req.Content
		in.IsAnonymous = req.IsAnonymous
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Only the author or an admin may delete; files, reactions and comments go with it
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: postID,
	}); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "Post deleted successfully")
}

// AddReaction handles POST /api/posts/:id/react
// @Summary React to a post
// @Description Reacting again with the same type refreshes the existing reaction
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{type=string} true "like, love, laugh or cry"
// @Success 200 {object} models.PostReaction
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/react [post]
func (s *Server) AddReaction(c *fiber.Ctx) error {
	postID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Type string `json:"type"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reaction, err := s.reactionService.AddReaction(c.UserContext(), currentUserID(c), postID, req.Type)
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(reaction)
}

// RemoveReaction handles DELETE /api/posts/:id/react/:type
// @Summary Remove a reaction
// @Description Succeeds whether or not the reaction existed
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param type path string true "Reaction type"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/react/{type} [delete]
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	postID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.reactionService.RemoveReaction(c.UserContext(), currentUserID(c), postID, c.Params("type")); err != nil {
		return s.respondAppError(c, err)
	}
	return messageResponse(c, "Reaction removed")
}

func firstValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func attachmentFromHeader(fh *multipart.FileHeader) service.Attachment {
	return service.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
