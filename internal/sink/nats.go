package sink

import (
	"context"
	"fmt"
	"time"

	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/metrics"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// msgPublisher is the part of *nats.Conn the sink needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NatsSink publishes envelopes on core NATS subjects:
// <prefix>.group.<kind>.<id> for groups and <prefix>.broadcast otherwise.
type NatsSink struct {
	conn     msgPublisher
	nc       *nats.Conn
	resolver events.ChannelResolver
	logger   *zap.Logger
}

var _ events.Emitter = (*NatsSink)(nil)

// NewNatsSink connects to url. The connection keeps reconnecting in the
// background; publishes made while disconnected are buffered by the client.
func NewNatsSink(url, subjectPrefix string, l *zap.Logger) (*NatsSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("restaurant-realtime"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s := newNatsSink(nc, subjectPrefix, l)
	s.nc = nc
	return s, nil
}

func newNatsSink(conn msgPublisher, subjectPrefix string, l *zap.Logger) *NatsSink {
	return &NatsSink{
		conn:     conn,
		resolver: events.NewSubjectResolver(subjectPrefix),
		logger:   l,
	}
}

func (n *NatsSink) Broadcast(_ context.Context, event string, payload events.Payload) error {
	return n.publish(events.NewEnvelope("", event, payload))
}

func (n *NatsSink) EmitTo(_ context.Context, group, event string, payload events.Payload) error {
	return n.publish(events.NewEnvelope(group, event, payload))
}

func (n *NatsSink) publish(env events.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: n.resolver.ResolveChannel(env),
		Data:    data,
		Header:  nats.Header{"event": []string{env.Event}},
	}
	if err := n.conn.PublishMsg(msg); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("nats").Inc()
		n.logger.Warn("nats publish failed", zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", msg.Subject, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection
func (n *NatsSink) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}
