package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roastparty/server/internal/infrastructure/logging"
)

const (
	ExchangeRooms = "rooms.events"

	QueueRoomLifecycle = "rooms.lifecycle"
	QueueAnnouncements = "rooms.announcements"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
	logger  logging.Logger
}

func NewRabbitMQ(uri string, logger logging.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeRooms,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	r := &RabbitMQ{conn: conn, Channel: ch, logger: logger}

	if err := r.declareAndBindQueue(QueueRoomLifecycle, "room.*", "member.*"); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.declareAndBindQueue(QueueAnnouncements, "announcement.*"); err != nil {
		r.Close()
		return nil, err
	}

	logger.Info(logging.RabbitMQ, logging.Startup, "connected to rabbitmq", nil)

	return r, nil
}

func (r *RabbitMQ) declareAndBindQueue(name string, routingKeys ...string) error {
	if _, err := r.Channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	for _, key := range routingKeys {
		if err := r.Channel.QueueBind(name, key, ExchangeRooms, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", name, err)
		}
	}

	return nil
}

// PublishMessage marshals msg as JSON and publishes it to the rooms exchange.
func (r *RabbitMQ) PublishMessage(ctx context.Context, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = r.Channel.PublishWithContext(ctx,
		ExchangeRooms,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// ConsumeMessages delivers each message body to handler. A handler error
// nacks the message without requeue; success acks it.
func (r *RabbitMQ) ConsumeMessages(queue string, handler func(body []byte) error) error {
	deliveries, err := r.Channel.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume from queue %s: %w", queue, err)
	}

	go func() {
		for d := range deliveries {
			if err := handler(d.Body); err != nil {
				r.logger.Error(logging.RabbitMQ, logging.ExternalService, "message handler failed", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	return nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
