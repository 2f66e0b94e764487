package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/apperror"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
)

// ErrorHandler is the application's fiber.ErrorHandler. Classified errors are
// answered {"error": message} with their mapped status; anything else is
// logged and answered as a generic 500.
func ErrorHandler(logger *security.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := apperror.KindOf(err)
		if kind == apperror.Internal {
			logger.Error("request failed", err,
				zap.String("method", c.Method()),
				zap.String("path", c.Path()))
		}
		return c.Status(apperror.Status(kind)).JSON(fiber.Map{"error": apperror.MessageOf(err)})
	}
}

// handleError writes err through the app's error handler so that outer
// middleware observes the final status. It returns nil once handled.
func handleError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if herr := c.App().ErrorHandler(c, err); herr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
	return nil
}
