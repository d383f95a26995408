package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/shared/events"
)

// EventHandler processes one invalidation event. A returned error is
// logged; the message is still marked consumed because invalidation is
// best-effort and TTL expiry bounds staleness.
type EventHandler func(ctx context.Context, event events.InvalidationEvent) error

// InvalidationConsumer consumes invalidation events from Kafka and
// hands them to the registered handler.
type InvalidationConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler EventHandler
	logger  logger.Logger
}

// ConsumerConfig holds consumer group settings
type ConsumerConfig struct {
	Brokers []string
	Group   string
	Topic   string
}

// NewInvalidationConsumer creates a new consumer group client
func NewInvalidationConsumer(cfg ConsumerConfig, handler EventHandler, log logger.Logger) (*InvalidationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_3_1_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.Group, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &InvalidationConsumer{
		group:   group,
		topic:   cfg.Topic,
		handler: handler,
		logger:  log,
	}, nil
}

// Run consumes until the context is cancelled.
func (c *InvalidationConsumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("Kafka consumer error", "error", err)
		}
	}()

	handler := &groupHandler{
		handler: c.handler,
		logger:  c.logger,
	}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("Consumer group session failed", "error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group
func (c *InvalidationConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler EventHandler
	logger  logger.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		event, err := events.UnmarshalInvalidationEvent(message.Value)
		if err != nil {
			h.logger.Warn("Skipping malformed invalidation message",
				"topic", message.Topic,
				"offset", message.Offset,
				"error", err,
			)
			session.MarkMessage(message, "")
			continue
		}

		if err := h.handler(session.Context(), event); err != nil {
			h.logger.Error("Invalidation handler failed",
				"entity", event.Entity,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
		session.MarkMessage(message, "")
	}
	return nil
}
