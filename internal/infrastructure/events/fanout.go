package events

import (
	"context"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
)

// Fanout delivers every event to each publisher in order.
type Fanout []ports.EventPublisher

func (f Fanout) Publish(ctx context.Context, event domain.Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}
