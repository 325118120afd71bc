// Package events is the in-process publish/subscribe bus modules use to react
// to each other without importing one another. Domain event types live in
// internal/events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event, usually by embedding BaseEvent.
type Event interface {
	// EventName is the subscription key, e.g. "realestate.listings.imported".
	EventName() string
	// EventID identifies one publication in logs across handlers.
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent carries the id and UTC timestamp of one publication.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventID() uuid.UUID { return e.ID }

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh id and the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish hands the event to all handlers without waiting for them.
	Publish(ctx context.Context, event Event)
	// PublishSync runs all handlers and returns their combined error.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
