package events

import "time"

// Event types published by the site service.
const (
	ContentPublished = "CONTENT_PUBLISHED"
	PreviewActivated = "PREVIEW_ACTIVATED"
	PreviewDisabled  = "PREVIEW_DISABLED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONTENT_PUBLISHED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the only Event implementation; the type code travels in the
// NATS subject and the payload is a flat map.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// StringField returns a string payload value or "".
func StringField(e Event, key string) string {
	if e == nil || e.Payload() == nil {
		return ""
	}
	v, _ := e.Payload()[key].(string)
	return v
}
