package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, bad_gateway, etc.
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

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "upstream_unavailable", msg)
}

// errGatewayTimeout returns a 504 error.
func errGatewayTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, 504, "gateway_timeout", msg)
}

// errFromService maps a sighting service error onto a response. Anything
// not rejected locally failed at or on the way to the data API.
func errFromService(c *fiber.Ctx, err error) error {
	var se *domain.StatusError
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return errBadRequest(c, err.Error())
	case errors.As(err, &se) && se.StatusCode == 404:
		return errNotFound(c, "sighting not found")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return errUnavailable(c, "data api temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return errGatewayTimeout(c, "data api timed out")
	default:
		LoggerFromCtx(c.UserContext()).Warn("data api request failed", "error", err)
		return errBadGateway(c, err.Error())
	}
}
