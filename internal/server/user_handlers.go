package server

import (
	"scribe/internal/models"

	"github.com/gofiber/fiber/v2"
)

type userPostsResponse struct {
	*models.User
	Posts []models.Post `json:"posts"`
}

// ToggleVisibility handles PATCH /api/users/me/visibility
// @Summary Toggle profile visibility
// @Description Flip the caller between public and private
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me/visibility [patch]
func (s *Server) ToggleVisibility(c *fiber.Ctx) error {
	user, err := s.userService.ToggleVisibility(c.UserContext(), currentIdentity(c).User.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUser handles GET /api/users/:username
// @Summary Get user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.userService.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:username/posts
// @Summary Get user with posts
// @Description Posts of private users are only listed for the user themselves
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} userPostsResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	user, err := s.userService.GetByUsernameWithPosts(c.UserContext(), c.Params("username"), currentViewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	posts := user.Posts
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(userPostsResponse{User: user, Posts: posts})
}
