package controller

import (
	"portfolio-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IStudioController interface {
	RegisterRoutes(r fiber.Router)
	Redirect(ctx *fiber.Ctx) error
}

type studioController struct {
	studioURL string
}

// NewStudioController sends editors to the hosted authoring tool at studioURL.
func NewStudioController(studioURL string) IStudioController {
	return &studioController{studioURL: studioURL}
}

func (c *studioController) RegisterRoutes(r fiber.Router) {
	r.Get("/studio", c.Redirect)
}

func (c *studioController) Redirect(ctx *fiber.Ctx) error {
	if c.studioURL == "" {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, "Studio is not configured"))
	}
	return ctx.Redirect(c.studioURL, fiber.StatusFound)
}
