package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/config"
	"github.com/narwhalmedia/decisionengine/pkg/events"
	"github.com/narwhalmedia/decisionengine/pkg/interfaces"
)

// Message is the record value written for each event.
type Message struct {
	ID          string                 `json:"id"`
	AggregateID string                 `json:"aggregate_id"`
	EventType   string                 `json:"event_type"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Publisher writes release events to a Kafka topic, keyed by target so that
// events for one album set stay ordered within a partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewPublisher creates a new Kafka event publisher
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*Publisher, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return NewPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger.Named("kafka"),
	}
}

// Publish publishes an event to Kafka
func (p *Publisher) Publish(ctx context.Context, event interfaces.Event) error {
	message := Message{
		ID:          event.EventID(),
		AggregateID: event.AggregateID(),
		EventType:   event.EventType(),
		OccurredAt:  time.Unix(0, event.Timestamp()).UTC(),
	}
	if base, ok := event.(*events.BaseEvent); ok {
		message.Data = base.Data
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(event.EventType()),
			},
			{
				Key:   []byte("event_id"),
				Value: []byte(event.EventID()),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("event_type", event.EventType()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Handle lets the publisher subscribe to the in-process event bus.
func (p *Publisher) Handle(ctx context.Context, event interfaces.Event) error {
	return p.Publish(ctx, event)
}

// EventType subscribes the publisher to every event.
func (p *Publisher) EventType() string {
	return events.Wildcard
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.producer.Close()
}
