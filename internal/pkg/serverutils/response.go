package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every error the API returns.
func ErrorResponse(statusCode int, message string) fiber.Map {
	return fiber.Map{
		"statusCode": statusCode,
		"message":    message,
	}
}

// ErrorHandler renders errors returned from handlers as ErrorResponse JSON.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
