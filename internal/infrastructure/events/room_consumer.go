package events

import (
	"encoding/json"
	"fmt"

	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/messaging"
)

// AmqpConsumer feeds queued message bodies into a handler.
type AmqpConsumer interface {
	ConsumeMessages(queue string, handler func(body []byte) error) error
}

// RoomConsumer drains the lifecycle queue and writes an audit line per
// event. Keeps the queue from growing unbounded when no other consumer is
// attached.
type RoomConsumer struct {
	amqp   AmqpConsumer
	logger logging.Logger
}

func NewRoomConsumer(amqp AmqpConsumer, logger logging.Logger) *RoomConsumer {
	return &RoomConsumer{amqp: amqp, logger: logger}
}

func (c *RoomConsumer) Start() error {
	if err := c.amqp.ConsumeMessages(messaging.QueueRoomLifecycle, c.handle); err != nil {
		return fmt.Errorf("failed to start room lifecycle consumer: %w", err)
	}
	return nil
}

func (c *RoomConsumer) handle(body []byte) error {
	var event map[string]any
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode room event: %w", err)
	}

	c.logger.Info(logging.RabbitMQ, logging.Lifecycle, "room event received", map[logging.ExtraKey]any{
		"event": event,
	})
	return nil
}
