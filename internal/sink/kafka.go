package sink

import (
	"context"
	"fmt"
	"time"

	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = 50 * time.Millisecond
)

// messageWriter is the part of *kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink appends every envelope to one topic. The message key is the
// delivery group so events for a group stay on one partition, in order.
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

var _ events.Emitter = (*KafkaSink)(nil)

// NewKafkaSink builds an async writer: WriteMessages never waits for the
// broker and failed batches are logged from the completion callback.
func NewKafkaSink(brokers []string, topic string, l *zap.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker address")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink requires a topic")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              DefaultKafkaBatchSize,
		BatchTimeout:           DefaultKafkaBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.SinkErrorsTotal.WithLabelValues("kafka").Add(float64(len(messages)))
				l.Warn("kafka write failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}

	return newKafkaSink(writer, topic, l), nil
}

func newKafkaSink(w messageWriter, topic string, l *zap.Logger) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, logger: l}
}

func (k *KafkaSink) Broadcast(ctx context.Context, event string, payload events.Payload) error {
	return k.write(ctx, events.NewEnvelope("", event, payload))
}

func (k *KafkaSink) EmitTo(ctx context.Context, group, event string, payload events.Payload) error {
	return k.write(ctx, events.NewEnvelope(group, event, payload))
}

func (k *KafkaSink) write(ctx context.Context, env events.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:     []byte(env.Group),
		Value:   data,
		Headers: []kafka.Header{{Key: "event", Value: []byte(env.Event)}},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		k.logger.Warn("kafka write failed", zap.String("topic", k.topic), zap.Error(err))
		return err
	}
	return nil
}

// Close flushes buffered messages
func (k *KafkaSink) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
