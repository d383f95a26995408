package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/shared/events"
)

// InvalidationPublisher publishes invalidation events to Kafka at the
// write-commit boundary.
type InvalidationPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   logger.Logger
}

// Config holds Kafka connection settings
type Config struct {
	Brokers []string
	Topic   string
}

// NewInvalidationPublisher creates a new Kafka publisher
func NewInvalidationPublisher(cfg Config, log logger.Logger) (*InvalidationPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Version = sarama.V3_3_1_0

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	p := &InvalidationPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   log,
	}

	go p.handleErrors()
	go p.handleSuccesses()

	return p, nil
}

// Publish publishes an invalidation event. The partition key is the
// entity reference so events for one entity arrive in order.
func (p *InvalidationPublisher) Publish(ctx context.Context, event events.InvalidationEvent) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%s_%d", event.Entity, event.EntityID)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("entity"), Value: []byte(event.Entity)},
			{Key: []byte("action"), Value: []byte(event.Action)},
		},
		Timestamp: event.Timestamp,
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the publisher
func (p *InvalidationPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}

func (p *InvalidationPublisher) handleErrors() {
	for err := range p.producer.Errors() {
		p.logger.Error("Kafka producer error", "error", err.Err)
	}
}

func (p *InvalidationPublisher) handleSuccesses() {
	for msg := range p.producer.Successes() {
		p.logger.Debug("Invalidation event delivered",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	}
}
