package services

import (
	"context"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) {}

func publisherOrNop(p ports.EventPublisher) ports.EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func publish(ctx context.Context, events ports.EventPublisher, eventType domain.EventType, sessionID domain.SessionID, message string, data map[string]interface{}) {
	event := domain.NewEvent(eventType, message)
	event.SessionID = sessionID
	event.Data = data
	events.Publish(ctx, event)
}
