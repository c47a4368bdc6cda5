package controller

import (
	"errors"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const webhookSecretHeader = "X-Webhook-Secret"

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	ContentPublished(ctx *fiber.Ctx) error
}

type webhookController struct {
	service service.IWebhookService
}

func NewWebhookController(service service.IWebhookService) IWebhookController {
	return &webhookController{service: service}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	r.Post("/webhooks/content", c.ContentPublished)
}

func (c *webhookController) ContentPublished(ctx *fiber.Ctx) error {
	var req dto.ContentPublishedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid payload"))
	}

	err := c.service.HandleContentPublished(ctx.UserContext(), ctx.Get(webhookSecretHeader), &req)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			return ctx.Status(authErr.Status).JSON(serverutils.ErrorResponse(authErr.Status, authErr.Message))
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	return ctx.Status(fiber.StatusAccepted).JSON(dto.WebhookResponse{Accepted: true})
}
