package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errUnprocessable returns a 422 error. The code is the validation code so
// clients can tell an empty name from a short outline.
func errUnprocessable(c *fiber.Ctx, code domain.ValidationCode, msg string) error {
	return newError(c, 422, string(code), msg)
}

// writeDomainError maps zone service errors onto the API error envelope.
// Errors without a user-facing detail are logged and reported as fallback.
func writeDomainError(c *fiber.Ctx, err error, fallback string) error {
	var verr *domain.ValidationError
	var cerr *domain.ConflictError
	switch {
	case errors.As(err, &verr):
		return errUnprocessable(c, verr.Code, verr.Message)
	case errors.As(err, &cerr):
		return errConflict(c, cerr.Detail)
	case errors.Is(err, domain.ErrZoneConflict):
		return errConflict(c, "Zone with this name already exists")
	case errors.Is(err, domain.ErrZoneNotFound):
		return errNotFound(c, "Zone not found")
	default:
		LoggerFromCtx(c.UserContext()).Error("zone request failed", slog.String("error", err.Error()))
		return errInternal(c, fallback)
	}
}
