package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/abstractions"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// RabbitSink wraps each message in the standard integration envelope.
type RabbitSink struct {
	bus abstractions.EventBus
}

func NewRabbitSink(bus abstractions.EventBus) *RabbitSink {
	return &RabbitSink{bus: bus}
}

func (s *RabbitSink) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	envelope := primitives.NewIntegrationEventEnvelope(msg.Type, msg.PayloadJSON)
	envelope.SetRoutingKey(msg.Type)
	return s.bus.Publish(ctx, &envelope)
}

// MessageWriter is the part of kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID.String()),
		Value: []byte(msg.PayloadJSON),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.Type)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// BreakerSink stops calling a failing broker for a while once consecutive failures pile up.
// Calls rejected by the breaker, and the failure that trips it, are reported as ErrSinkUnavailable.
type BreakerSink struct {
	next Sink
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerSink(name string, next Sink, logger *zap.Logger) *BreakerSink {
	return newBreakerSink(name, next, logger, 30*time.Second)
}

func newBreakerSink(name string, next Sink, logger *zap.Logger, openFor time.Duration) *BreakerSink {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("outbox sink breaker state changed",
				zap.String("sink", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &BreakerSink{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (s *BreakerSink) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Publish(ctx, msg)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w: %w", msg.Type, ErrSinkUnavailable, err)
	case s.cb.State() == gobreaker.StateOpen:
		// this failure tripped the breaker; the message keeps its retry budget
		return fmt.Errorf("%s: %w: %w", msg.Type, ErrSinkUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
}

// DiscardSink acknowledges everything; used when no broker is configured.
type DiscardSink struct{}

func (DiscardSink) Publish(context.Context, domain.OutboxMessage) error { return nil }
