package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/janlord02/thryft-backend-sub000/internal/middleware"
)

// formatValidationError converts the first validator error to a client message.
// Field names are the JSON names registered by internal/validator.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "oneof":
		return "invalid request: " + field + " must be one of: " + fe.Param()
	}
	return "invalid request: " + field + " is invalid"
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// requestLog starts an event carrying the request fields every handler log shares.
func requestLog(ev *zerolog.Event, c *fiber.Ctx) *zerolog.Event {
	ev = ev.
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path())
	if id, ok := middleware.IdentityFrom(c); ok {
		ev = ev.Int64("user_id", id.UserID)
	}
	return ev
}

func internalError(c *fiber.Ctx, err error, msg string) error {
	requestLog(log.Error(), c).Err(err).Msg(msg)
	return errorJSON(c, fiber.StatusInternalServerError, "internal server error")
}

// parseBody decodes and validates the request body into req.
// It writes the 400 response itself and reports whether the handler may continue.
func parseBody(c *fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := v.Struct(req); err != nil {
		return false, errorJSON(c, fiber.StatusBadRequest, formatValidationError(err))
	}
	return true, nil
}

func identity(c *fiber.Ctx) middleware.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
