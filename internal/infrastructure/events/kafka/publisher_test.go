package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/pkg/events"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewPublisherWithProducer(producer, "decision-events", zap.NewNop())
	defer publisher.Close()

	event := events.NewAggregateEvent("release.grabbed", "1:10,11", map[string]interface{}{
		"title": "Artist - Album",
	})

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "decision-events" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "1:10,11" {
			return errors.New("wrong key " + string(key))
		}
		return nil
	})

	require.NoError(t, publisher.Handle(context.Background(), event))
}

func TestPublisher_MessageBody(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewPublisherWithProducer(producer, "decision-events", zap.NewNop())
	defer publisher.Close()

	event := events.NewAggregateEvent("release.pending", "1:10", map[string]interface{}{"pending_reason": "delay"})

	var decoded Message
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		return json.Unmarshal(value, &decoded)
	})

	require.NoError(t, publisher.Publish(context.Background(), event))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "release.pending", decoded.EventType)
	assert.Equal(t, "delay", decoded.Data["pending_reason"])
	assert.Equal(t, events.Wildcard, publisher.EventType())
}

func TestPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewPublisherWithProducer(producer, "decision-events", zap.NewNop())
	defer publisher.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := publisher.Publish(context.Background(), events.NewEvent("release.grab_failed", nil))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
