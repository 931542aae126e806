package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/pkg/events"
	"github.com/narwhalmedia/decisionengine/pkg/interfaces"
)

// PublishTimeout bounds a single JetStream publish.
const PublishTimeout = 5 * time.Second

// StreamPublisher is the part of jetstream.JetStream used for publishing.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventEnvelope wraps an event with metadata for transport
type EventEnvelope struct {
	ID          string      `json:"id"`
	AggregateID string      `json:"aggregate_id"`
	EventType   string      `json:"event_type"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

// NewEnvelope wraps event for transport.
func NewEnvelope(event interfaces.Event) EventEnvelope {
	var data interface{} = event
	if base, ok := event.(*events.BaseEvent); ok {
		data = base.Data
	}
	return EventEnvelope{
		ID:          event.EventID(),
		AggregateID: event.AggregateID(),
		EventType:   event.EventType(),
		OccurredAt:  time.Unix(0, event.Timestamp()).UTC(),
		Data:        data,
	}
}

// Publisher forwards release events to JetStream. The event type is the subject.
type Publisher struct {
	js     StreamPublisher
	logger *zap.Logger
}

// NewPublisher creates a new NATS event publisher
func NewPublisher(js StreamPublisher, logger *zap.Logger) *Publisher {
	return &Publisher{
		js:     js,
		logger: logger.Named("publisher"),
	}
}

// Publish publishes an event, deduplicated on its id.
func (p *Publisher) Publish(ctx context.Context, event interfaces.Event) error {
	subject := event.EventType()

	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	ack, err := p.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(event.EventID()))
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.Error(err),
			zap.String("event_id", event.EventID()),
			zap.String("subject", subject),
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("event_id", event.EventID()),
		zap.String("subject", subject),
		zap.Uint64("sequence", ack.Sequence),
		zap.String("stream", ack.Stream),
	)
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
