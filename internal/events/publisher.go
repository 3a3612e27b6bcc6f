package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Topic carries completed-sale events for downstream consumers
// (reporting, stock replenishment).
const Topic = "pos-sales"

// Publisher announces committed sales. Publication is best-effort: a failure
// must never affect an already-committed checkout.
type Publisher interface {
	PublishSaleCompleted(ctx context.Context, sale *domain.Sale) error
	Close() error
}

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes sale events to Kafka behind a circuit breaker, so a
// dead broker fails fast instead of stalling every checkout response.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[any]
	log     *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(log *zap.Logger, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: w,
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name: "kafka-sale-events",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		log: log,
	}
}

// PublishSaleCompleted writes one sale.completed event keyed by sale id.
func (p *KafkaPublisher) PublishSaleCompleted(ctx context.Context, sale *domain.Sale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(sale.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("sale.completed")},
		},
	}

	if _, err := p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	}); err != nil {
		p.log.Warn("failed to publish sale event",
			zap.String("sale_id", sale.ID),
			zap.Error(err))
		return fmt.Errorf("publish sale event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSaleCompleted(context.Context, *domain.Sale) error { return nil }
func (NopPublisher) Close() error                                             { return nil }
