package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
)

// ContentPublishedTopic is the in-process topic for published content changes.
const ContentPublishedTopic = "content.published"

type IWebhookService interface {
	HandleContentPublished(ctx context.Context, secret string, req *dto.ContentPublishedRequest) error
}

type webhookService struct {
	secret     string
	instanceID string
	bus        message.Publisher
	publisher  IEventPublisher
	validate   *validator.Validate
	logger     logger.ILogger
}

// NewWebhookService publishes accepted webhooks to bus and, when publisher is
// set, to the other instances. instanceID marks events that originate here.
func NewWebhookService(secret, instanceID string, bus message.Publisher, publisher IEventPublisher, log logger.ILogger) IWebhookService {
	return &webhookService{
		secret:     secret,
		instanceID: instanceID,
		bus:        bus,
		publisher:  publisher,
		validate:   validator.New(),
		logger:     log,
	}
}

func (s *webhookService) HandleContentPublished(ctx context.Context, secret string, req *dto.ContentPublishedRequest) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		s.logger.Warn("WEBHOOK", "Rejected content webhook", map[string]interface{}{"reason": "invalid secret"})
		return ErrInvalidSecret
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid webhook payload: %w", err)
	}

	msg := dto.ContentPublishedMessage{
		DocumentId:   req.Id,
		DocumentType: req.Type,
		Slug:         req.Slug,
		Origin:       s.instanceID,
	}

	if err := publishContentMessage(s.bus, msg); err != nil {
		return err
	}

	publishBestEffort(ctx, s.publisher, s.logger, "WEBHOOK", events.New(events.ContentPublished, map[string]interface{}{
		"document_id":   msg.DocumentId,
		"document_type": msg.DocumentType,
		"slug":          msg.Slug,
		"origin":        msg.Origin,
	}))

	s.logger.Info("WEBHOOK", "Content change accepted", map[string]interface{}{
		"document_id":   req.Id,
		"document_type": req.Type,
	})
	return nil
}

func publishContentMessage(bus message.Publisher, msg dto.ContentPublishedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return bus.Publish(ContentPublishedTopic, message.NewMessage(watermill.NewUUID(), payload))
}
