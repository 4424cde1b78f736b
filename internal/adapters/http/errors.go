package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// Fixed client-facing bodies.
const (
	msgEpochNotFound   = "Epoch Not Found"
	msgDataUnavailable = "Ephemeris Data Unavailable"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, bad_gateway, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// ErrorBody is the fixed-shape body for 404 and 503, e.g. {"Error":"Epoch Not Found"}.
type ErrorBody struct {
	Error string `json:"Error"`
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
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// respondError maps service errors to HTTP responses. Everything that is not
// a known domain condition is a 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorBody{Error: msgEpochNotFound})
	case errors.Is(err, domain.ErrDataUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorBody{Error: msgDataUnavailable})
	case errors.Is(err, domain.ErrUpstreamFetch):
		LoggerFromCtx(c.UserContext()).Error("upstream feed failure", "error", err)
		return newError(c, fiber.StatusBadGateway, "bad_gateway", "ephemeris feed unavailable")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, err.Error())
	}
}
