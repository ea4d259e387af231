package events

import "context"

// Subscriber receives raw payloads from a pub/sub transport until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channels []string, handler func(channel string, payload []byte)) error
}
