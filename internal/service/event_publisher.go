package service

import (
	"context"

	"portfolio-be/internal/pkg/logger"
	"portfolio-be/pkg/events"
)

// IEventPublisher is satisfied by *nats.Publisher.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publishBestEffort sends event when a publisher is configured. Failures are
// logged and never reach the caller.
func publishBestEffort(ctx context.Context, publisher IEventPublisher, log logger.ILogger, module string, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn(module, "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
