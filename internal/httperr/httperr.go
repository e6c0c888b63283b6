// Package httperr renders handler errors as the JSON envelope clients expect.
package httperr

import (
	"errors"

	"ricemill-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler is the fiber ErrorHandler. *fiber.Error keeps its code and message;
// anything else is a 500 and is logged.
func Handler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{
			"success": false,
			"message": e.Message,
		})
	}

	requestID, _ := c.Locals(logger.CtxRequestIDKey).(string)
	logger.L().Error("unexpected error",
		zap.Error(err),
		zap.String("path", c.Path()),
		zap.String("request_id", requestID),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
