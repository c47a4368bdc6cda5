package service

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AuthError is returned when a request carries a missing or wrong shared secret.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrMissingSecret = &AuthError{Status: fiber.StatusUnauthorized, Message: "Missing secret"}
	ErrInvalidSecret = &AuthError{Status: fiber.StatusUnauthorized, Message: "Invalid secret"}

	ErrUnknownPage  = errors.New("unknown page")
	ErrSlugRequired = errors.New("slug is required")
)
