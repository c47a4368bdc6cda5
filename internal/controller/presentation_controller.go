package controller

import (
	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/presentation"

	"github.com/gofiber/fiber/v2"
)

type IPresentationController interface {
	RegisterRoutes(r fiber.Router)
	Locations(ctx *fiber.Ctx) error
}

type presentationController struct {
	resolver *presentation.Resolver
}

func NewPresentationController(resolver *presentation.Resolver) IPresentationController {
	return &presentationController{resolver: resolver}
}

func (c *presentationController) RegisterRoutes(r fiber.Router) {
	r.Get("/presentation/locations", c.Locations)
}

func (c *presentationController) Locations(ctx *fiber.Ctx) error {
	docType := ctx.Query("type")
	if docType == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Missing type"))
	}

	locations := c.resolver.Resolve(docType, ctx.Query("slug"))
	res := dto.LocationsResponse{Locations: make([]dto.LocationItem, 0, len(locations))}
	for _, loc := range locations {
		res.Locations = append(res.Locations, dto.LocationItem{Title: loc.Title, Href: loc.Href})
	}
	return ctx.JSON(res)
}
