package redis

import (
	"context"
	"errors"

	"restaurant-realtime/internal/events"

	"github.com/redis/go-redis/v9"
)

// Subscriber pattern-subscribes to redis channels and hands every message to
// a callback until ctx is done.
type Subscriber struct {
	client *redis.Client
}

var _ events.Subscriber = (*Subscriber)(nil)

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	// wait for the subscription to be confirmed so early publishes are not lost
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
