package controller

import (
	"errors"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/service"
	"portfolio-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

// SessionEnder closes the live preview sockets of a session.
type SessionEnder interface {
	EndSession(sessionID string)
}

type IPreviewController interface {
	RegisterRoutes(r fiber.Router)
	Activate(ctx *fiber.Ctx) error
	Disable(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type previewController struct {
	service  service.IPreviewService
	sessions store.SessionStore
	live     SessionEnder
	logger   logger.ILogger
}

func NewPreviewController(service service.IPreviewService, sessions store.SessionStore, live SessionEnder, log logger.ILogger) IPreviewController {
	return &previewController{
		service:  service,
		sessions: sessions,
		live:     live,
		logger:   log,
	}
}

func (c *previewController) RegisterRoutes(r fiber.Router) {
	r.Get("/preview", c.Activate)
	r.Post("/preview", c.Activate)
	r.Get("/preview/status", c.Status)

	r.Get("/disable-preview", c.Disable)
	r.Post("/disable-preview", c.Disable)
}

func (c *previewController) Activate(ctx *fiber.Ctx) error {
	var req dto.PreviewActivateRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if ctx.Method() == fiber.MethodPost && len(ctx.Body()) > 0 {
		var form dto.PreviewActivateRequest
		if err := ctx.BodyParser(&form); err == nil {
			mergeActivateRequest(&req, &form)
		}
	}
	req.ClientIP = ctx.IP()

	res, err := c.service.Activate(ctx.UserContext(), &req)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			return ctx.Status(authErr.Status).JSON(serverutils.ErrorResponse(authErr.Status, authErr.Message))
		}
		return err
	}

	if err := c.sessions.SetPreview(ctx); err != nil {
		c.logger.Error("PREVIEW", "Failed to set preview cookie", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, "Preview is not configured"))
	}

	return ctx.Redirect(res.RedirectPath, fiber.StatusFound)
}

// mergeActivateRequest fills the fields the query string left empty.
func mergeActivateRequest(dst, src *dto.PreviewActivateRequest) {
	if dst.Secret == "" {
		dst.Secret = src.Secret
	}
	if dst.Slug == "" {
		dst.Slug = src.Slug
	}
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.Pathname == "" {
		dst.Pathname = src.Pathname
	}
}

func (c *previewController) Disable(ctx *fiber.Ctx) error {
	sessionID := c.sessions.SessionID(ctx)
	c.sessions.Clear(ctx)
	if c.live != nil {
		c.live.EndSession(sessionID)
	}
	return ctx.JSON(c.service.Deactivate(ctx.UserContext()))
}

func (c *previewController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.PreviewStatusResponse{Preview: serverutils.IsPreview(ctx)})
}
