package websocket

import (
	"context"
	"strings"

	"restaurant-realtime/internal/events"

	"go.uber.org/zap"
)

// RedisBridge delivers envelopes published by any instance to this
// instance's websocket clients.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     *zap.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, l *zap.Logger) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub, logger: l}
}

// Run blocks until ctx is done or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.ChannelPattern}, func(channel string, payload []byte) {
		group, ok := channelGroup(channel)
		if !ok {
			b.logger.Debug("ignoring redis channel", zap.String("channel", channel))
			return
		}
		b.hub.Deliver(group, payload)
	})
}

// channelGroup maps a redis channel back to the delivery group it carries.
// The broadcast channel maps to the empty group.
func channelGroup(channel string) (string, bool) {
	if channel == events.ChannelBroadcast {
		return "", true
	}
	group, ok := strings.CutPrefix(channel, events.ChannelPrefixGroup)
	if !ok || group == "" {
		return "", false
	}
	return group, true
}
