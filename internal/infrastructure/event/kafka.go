package event

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// HeaderEventName carries the notification name on every Kafka message
const HeaderEventName = "pms-event"

// messageWriter abstracts kafka.Writer for testability
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications to a Kafka topic keyed by hotel
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier creates a notifier writing to topic on the given brokers
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka notifier: no topic configured")
	}
	return NewKafkaNotifierWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}), nil
}

// NewKafkaNotifierWith wraps an existing writer
func NewKafkaNotifierWith(w messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

// Emit writes one message
func (k *KafkaNotifier) Emit(ctx context.Context, name string, payload integration.EventPayload) error {
	n := NewNotification(name, payload)
	value, err := Serialize(n)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:     n.Key(),
		Value:   value,
		Time:    n.OccurredAt,
		Headers: []kafka.Header{{Key: HeaderEventName, Value: []byte(name)}},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

var _ integration.Notifier = (*KafkaNotifier)(nil)
