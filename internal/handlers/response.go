package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/middleware"
)

// ErrorHandler renders every error returned by a handler in the
// {"success": false, "message": ...} envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		status := ae.HTTPStatus()
		msg := ae.Message
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(), "path", c.Path(),
				"request_id", c.Locals("requestid"), "error", err)
			msg = "internal server error"
		}
		body := fiber.Map{"success": false, "message": msg}
		if ae.Details != nil {
			body["errors"] = ae.Details
		}
		return c.Status(status).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
	}

	logger.Error("unhandled error", "method", c.Method(), "path", c.Path(), "request_id", c.Locals("requestid"), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "internal server error"})
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, apperrors.Unauthorized("unauthorized")
	}
	return id, nil
}

// ownerID picks the portfolio owner: the authenticated caller first, then
// the userId field sent by the client. Nil means anonymous.
func ownerID(c *fiber.Ctx, fallback string) (*uuid.UUID, error) {
	if id, ok := middleware.UserID(c); ok {
		return &id, nil
	}
	if fallback == "" {
		return nil, nil
	}
	id, err := uuid.Parse(fallback)
	if err != nil {
		return nil, apperrors.Validation("invalid userId")
	}
	return &id, nil
}
