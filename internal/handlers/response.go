package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"growup/internal/errs"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation, errs.KindConflict, errs.KindAuth:
		return fiber.StatusBadRequest
	case errs.KindUnauthorized:
		return fiber.StatusUnauthorized
	case errs.KindForbidden:
		return fiber.StatusForbidden
	case errs.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"msg", "kind"}. Internal errors are logged and
// their cause is never sent to the client.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	kind := errs.KindOf(err)
	if kind == errs.KindInternal {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("request_id", c.Locals("requestid")).
			Msg("request failed")
	}
	return c.Status(statusFor(kind)).JSON(fiber.Map{
		"msg":  errs.MessageOf(err),
		"kind": kind,
	})
}

func respondInvalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"msg":   "Invalid request body",
		"kind":  errs.KindValidation,
		"error": err.Error(),
	})
}

// validationFailure runs struct validation and builds the 400 body listing
// the failed fields. ok is true when req is valid.
func validationFailure(validate *validator.Validate, req any, msg string) (body fiber.Map, ok bool) {
	err := validate.Struct(req)
	if err == nil {
		return nil, true
	}
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return fiber.Map{
		"msg":    msg,
		"kind":   errs.KindValidation,
		"errors": errorMessages,
	}, false
}

// requestContext bounds the work of a single request.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func forbidden(msg string) error {
	return errs.New(errs.KindForbidden, msg)
}
