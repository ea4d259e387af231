package redis

import (
	"context"
	"time"

	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// publishClient is the part of *redis.Client the publisher needs.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher puts every emission on a redis channel so that each service
// instance can deliver it to its own websocket clients.
type Publisher struct {
	client   publishClient
	resolver events.ChannelResolver
	logger   *zap.Logger
}

var _ events.Emitter = (*Publisher)(nil)

func NewPublisher(client publishClient, l *zap.Logger) *Publisher {
	return &Publisher{
		client:   client,
		resolver: events.NewRedisChannelResolver(),
		logger:   l,
	}
}

func (p *Publisher) Broadcast(ctx context.Context, event string, payload events.Payload) error {
	return p.publish(ctx, events.NewEnvelope("", event, payload))
}

func (p *Publisher) EmitTo(ctx context.Context, group, event string, payload events.Payload) error {
	return p.publish(ctx, events.NewEnvelope(group, event, payload))
}

func (p *Publisher) publish(ctx context.Context, env events.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	channel := p.resolver.ResolveChannel(env)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("redis").Inc()
		p.logger.Warn("redis publish failed", zap.String("channel", channel), zap.String("event", env.Event), zap.Error(err))
		return err
	}
	return nil
}
