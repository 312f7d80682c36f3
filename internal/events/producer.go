// README: Kafka publisher for request lifecycle events (sarama sync producer).
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"roadaid/internal/types"
)

// Publisher is what the dispatch and request layers depend on. Publishing is
// best-effort from their point of view; failures are logged, never returned
// to clients.
type Publisher interface {
	Publish(eventType EventType, requestID types.ID, data interface{}) error
	Close() error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(eventType EventType, requestID types.ID, data interface{}) error {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(requestID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(EventType, types.ID, interface{}) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
