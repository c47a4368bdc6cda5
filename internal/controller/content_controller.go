package controller

import (
	"errors"

	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IContentController interface {
	RegisterRoutes(r fiber.Router)
	GetPage(ctx *fiber.Ctx) error
	GetProject(ctx *fiber.Ctx) error
	GetSite(ctx *fiber.Ctx) error
}

type contentController struct {
	content service.IContentService
	site    service.ISiteStore
}

func NewContentController(content service.IContentService, site service.ISiteStore) IContentController {
	return &contentController{content: content, site: site}
}

func (c *contentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pages")
	h.Get("/projects/:slug", c.GetProject)
	h.Get("/:page", c.GetPage)

	r.Get("/site", c.GetSite)
}

func (c *contentController) GetPage(ctx *fiber.Ctx) error {
	return c.load(ctx, ctx.Params("page"), "")
}

func (c *contentController) GetProject(ctx *fiber.Ctx) error {
	return c.load(ctx, "project", ctx.Params("slug"))
}

func (c *contentController) load(ctx *fiber.Ctx, key, slug string) error {
	res, err := c.content.LoadPage(ctx.UserContext(), key, slug, serverutils.IsPreview(ctx))
	switch {
	case errors.Is(err, service.ErrUnknownPage):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Unknown page"))
	case errors.Is(err, service.ErrSlugRequired):
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Missing slug"))
	case err != nil:
		return err
	}

	// Draft content must never be shared by caches.
	if res.Preview {
		ctx.Set(fiber.HeaderCacheControl, "private, no-store")
	}
	return ctx.JSON(res)
}

func (c *contentController) GetSite(ctx *fiber.Ctx) error {
	return ctx.JSON(c.site.Settings())
}
