package server

import (
	"errors"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	localIdentity = "identity"
	localViewer   = "viewer"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset query parameters. Out of range
// values are clamped by the post service.
func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Limit:  c.QueryInt("limit", service.DefaultPageSize),
		Offset: c.QueryInt("offset", 0),
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePostID is parseID for the :id of a post route. The id is attached to
// the request's span and access log.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := parseID(c, "id")
	if err == nil {
		annotatePost(c, id)
	}
	return id, err
}

func annotatePost(c *fiber.Ctx, id uint) {
	middleware.Annotate(c, attribute.Int64("post.id", int64(id)))
}

// currentIdentity returns the caller stored by AuthRequired.
func currentIdentity(c *fiber.Ctx) *service.Identity {
	id, _ := c.Locals(localIdentity).(*service.Identity)
	return id
}

// currentViewer returns the viewer stored by AuthRequired or OptionalAuth,
// or an anonymous viewer.
func currentViewer(c *fiber.Ctx) models.Viewer {
	if v, ok := c.Locals(localViewer).(models.Viewer); ok {
		return v
	}
	return models.Anonymous()
}

// statusForError maps an AppError code to an HTTP status.
func statusForError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	case fiber.StatusConflict:
		return models.CodeConflict
	default:
		return models.CodeInternal
	}
}

// respondServiceError writes err with the status its code maps to. Errors
// that are not AppErrors are reported as internal without their details.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	if models.ErrorCode(err) == "" {
		err = models.NewInternalError(err)
	}
	middleware.Annotate(c, attribute.String("error.code", models.ErrorCode(err)))
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err)
	}
	return models.RespondWithError(c, status, err)
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid request body"))
}
