package handler

import (
	"context"
	"encoding/json"
	"errors"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/service"
	internalWS "portfolio-be/internal/websocket"
	"portfolio-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveHandler serves the live preview socket. Each socket runs one
// subscription for the page it was opened for.
type LiveHandler struct {
	content  service.IContentService
	live     service.ILiveSubscriber
	sessions store.SessionStore
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewLiveHandler(content service.IContentService, live service.ILiveSubscriber, sessions store.SessionStore, hub *internalWS.Hub, log logger.ILogger) *LiveHandler {
	return &LiveHandler{
		content:  content,
		live:     live,
		sessions: sessions,
		hub:      hub,
		logger:   log,
	}
}

func (h *LiveHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/live", serverutils.RequirePreview, h.ServeWs)
}

// ServeWs validates the page before upgrading the connection.
func (h *LiveHandler) ServeWs(c *fiber.Ctx) error {
	key := c.Query("page")
	slug := c.Query("slug")

	route, q, err := h.content.PageDescriptor(key, slug)
	switch {
	case errors.Is(err, service.ErrUnknownPage):
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Unknown page"))
	case errors.Is(err, service.ErrSlugRequired):
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Missing slug"))
	case err != nil:
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := h.sessions.SessionID(c)

	return websocket.New(func(conn *websocket.Conn) {
		client := internalWS.NewClient(h.hub, conn, sessionID, key)
		h.hub.Register(client)
		defer h.hub.Unregister(client)

		go client.WritePump()

		sub, err := h.live.Subscribe(context.Background(), q, service.LiveHandlers{
			Refetch: func(ctx context.Context) (json.RawMessage, error) {
				return h.content.FetchPage(ctx, route, q, true)
			},
			Deliver: func(seq uint64, data json.RawMessage) {
				client.SendJSON(dto.LiveFrame{Type: dto.LiveFrameRefresh, Seq: seq, Data: data})
			},
			OnError: func(err error) {
				client.SendJSON(dto.LiveFrame{Type: dto.LiveFrameError, Message: "Live updates unavailable"})
			},
		})
		if err != nil {
			h.logger.Error("LiveHandler", "Failed to subscribe", map[string]interface{}{
				"page":  key,
				"error": err.Error(),
			})
			client.SendJSON(dto.LiveFrame{Type: dto.LiveFrameError, Message: "Live updates unavailable"})
			client.ReadPump()
			return
		}
		defer sub.Close()

		client.SendJSON(dto.LiveFrame{Type: dto.LiveFrameReady})
		h.logger.Info("LiveHandler", "Live preview started", map[string]interface{}{
			"page":            key,
			"slug":            slug,
			"subscription_id": sub.ID,
		})

		client.ReadPump()

		h.logger.Info("LiveHandler", "Live preview ended", map[string]interface{}{"subscription_id": sub.ID})
	})(c)
}
