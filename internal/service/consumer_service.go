package service

import (
	"context"
	"encoding/json"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/pkg/content/schema"
	"portfolio-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// CacheInvalidator is satisfied by *content.CachedClient.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// IConsumerService reacts to published content changes: it drops the
// published content cache and reloads the site settings when they changed.
type IConsumerService interface {
	Consume(ctx context.Context) error
	// HandleRemoteEvent forwards a CONTENT_PUBLISHED event received from
	// another instance onto the local bus.
	HandleRemoteEvent(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	bus        message.Publisher
	instanceID string
	cache      CacheInvalidator
	site       ISiteStore
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	bus message.Publisher,
	instanceID string,
	cache CacheInvalidator,
	site ISiteStore,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		bus:        bus,
		instanceID: instanceID,
		cache:      cache,
		site:       site,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, ContentPublishedTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Invalid messages are acked so they are not redelivered forever.
	defer msg.Ack()

	var payload dto.ContentPublishedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		return
	}

	if cs.cache != nil {
		if err := cs.cache.Invalidate(ctx); err != nil {
			cs.logger.Error("CONSUMER", "Failed to invalidate published cache", map[string]interface{}{
				"document_id": payload.DocumentId,
				"error":       err.Error(),
			})
		}
	}

	if payload.DocumentType == schema.TypeSite && cs.site != nil {
		if err := cs.site.Refresh(ctx); err != nil {
			cs.logger.Error("CONSUMER", "Failed to refresh site settings", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.logger.Info("CONSUMER", "Published content change applied", map[string]interface{}{
		"document_id":   payload.DocumentId,
		"document_type": payload.DocumentType,
		"origin":        payload.Origin,
	})
}

func (cs *consumerService) HandleRemoteEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.ContentPublished {
		return nil
	}
	origin := events.StringField(event, "origin")
	if origin == cs.instanceID {
		return nil
	}

	return publishContentMessage(cs.bus, dto.ContentPublishedMessage{
		DocumentId:   events.StringField(event, "document_id"),
		DocumentType: events.StringField(event, "document_type"),
		Slug:         events.StringField(event, "slug"),
		Origin:       origin,
	})
}
