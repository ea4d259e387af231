package changefeed

import "context"

// Relay receives every notification of a feed, in delivery order.
type Relay func(Notification)

// Source opens change feeds for single tables.
type Source interface {
	Open(ctx context.Context, schema, table string, relay Relay) (Feed, error)
}

// Feed is one live change-feed subscription.
type Feed interface {
	// Close stops delivery and releases the underlying connection.
	Close() error
	// Done is closed once the feed has stopped, for whatever reason.
	Done() <-chan struct{}
	// Err reports why the feed stopped; nil if it was closed deliberately.
	Err() error
}

// ChannelName is the postgres notification channel for a table.
func ChannelName(table string) string {
	return "realtime_" + table
}
