package events

import (
	"context"
	"encoding/json"
	"fmt"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "ezstream:events"

type busMessage struct {
	InstanceID string       `json:"instance_id"`
	Event      domain.Event `json:"event"`
}

// RedisBus relays status events between server instances that share a Redis
// session store, so a subscriber sees its session's events whichever
// instance served the request.
type RedisBus struct {
	client     redis.UniversalClient
	instanceID string
	channel    string
	logger     *zap.SugaredLogger
}

func NewRedisBus(client redis.UniversalClient, instanceID, channel string, logger *zap.SugaredLogger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		client:     client,
		instanceID: instanceID,
		channel:    channel,
		logger:     logger,
	}
}

var _ ports.EventPublisher = (*RedisBus)(nil)

// Publish forwards a locally produced event to the other instances.
func (b *RedisBus) Publish(ctx context.Context, event domain.Event) {
	data, err := json.Marshal(busMessage{InstanceID: b.instanceID, Event: event})
	if err != nil {
		b.logger.Warnw("failed to encode event", "type", event.Type, "error", err)
		return
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warnw("failed to relay event",
			"type", event.Type,
			"channel", b.channel,
			"error", err,
		)
	}
}

// Subscribe delivers events from other instances to local until ctx is done.
// The subscription is confirmed before Subscribe starts reading.
func (b *RedisBus) Subscribe(ctx context.Context, local ports.EventPublisher) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var m busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.logger.Warnw("failed to decode relayed event", "error", err)
				continue
			}

			// Skip events from this instance
			if m.InstanceID == b.instanceID {
				continue
			}
			local.Publish(ctx, m.Event)
		}
	}
}
