package websocket

import (
	"context"

	"lifeflow-server/internal/events"
)

// RedisBridge relays events arriving on the Redis bus to locally
// connected clients.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	patterns := []string{
		events.ChannelPrefixConversation + "*",
		events.ChannelPrefixUser + "*",
	}
	return b.subscriber.Subscribe(ctx, patterns, func(channel string, payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
}
