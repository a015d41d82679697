package server

import (
	"time"

	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register handles POST /api/users
// @Summary Register
// @Description Create a user account
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Token handles POST /api/users/token
// @Summary Log in
// @Description Exchange a username and password for a bearer token
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/token [post]
func (s *Server) Token(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	issued, err := s.credentials.IssueToken(service.Subject(user), 0)
	if err != nil {
		return respondServiceError(c, models.NewInternalError(err))
	}

	return c.JSON(TokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
	})
}

// Logout handles POST /api/users/logout
// @Summary Log out
// @Description Revoke the bearer token used for this request
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if s.revocations == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable, &models.AppError{
			Code:    models.CodeInternal,
			Message: "Token revocation is unavailable",
		})
	}

	id := currentIdentity(c)
	if err := s.revocations.Revoke(c.UserContext(), id.TokenID, id.ExpiresAt); err != nil {
		return respondServiceError(c, models.NewInternalError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetMe handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	return c.JSON(currentIdentity(c).User)
}
