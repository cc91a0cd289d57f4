package repository

import (
	"context"
	"fmt"
)

type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaLogPublisher ships aggregated error logs from the logger collector to Kafka.
type KafkaLogPublisher struct {
	producer messagePublisher
	service  string
}

// NewKafkaLogPublisher creates a publisher tagging each batch with the service name.
func NewKafkaLogPublisher(producer messagePublisher, service string) *KafkaLogPublisher {
	return &KafkaLogPublisher{producer: producer, service: service}
}

// PublishMessage implements logger.Publisher.
func (p *KafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	err := p.producer.Publish(ctx, topic, []byte(p.service), map[string]interface{}{
		"service": p.service,
		"logs":    payload,
	})
	if err != nil {
		return fmt.Errorf("publish logs: %w", err)
	}
	return nil
}
