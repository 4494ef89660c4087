package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"amravatimarket/internal/domain/service"
	"amravatimarket/pkg/logger"
)

// NewPublisher connects to RabbitMQ and declares a durable topic exchange.
// Any connection problem yields a noop publisher so the API keeps serving.
func NewPublisher(amqpURL, exchange string) service.NotificationSink {
	if amqpURL == "" {
		logger.Warn("RabbitMQ disabled, using noop", "reason", "empty amqp url")
		return Noop("empty amqp url")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logger.Warn("RabbitMQ disabled, using noop", "reason", err)
		return Noop(err.Error())
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn("RabbitMQ disabled, using noop", "reason", err)
		_ = conn.Close()
		return Noop(err.Error())
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logger.Warn("RabbitMQ disabled, using noop", "reason", err)
		_ = ch.Close()
		_ = conn.Close()
		return Noop(err.Error())
	}

	logger.Info("RabbitMQ connected", "exchange", exchange)
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// routingKey is "notification.created.<type>" so consumers can bind per type.
func routingKey(event service.NotificationCreated) string {
	return event.Event + "." + event.Type
}

func (p *amqpPublisher) Publish(ctx context.Context, event service.NotificationCreated) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey(event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.NotificationID,
		Timestamp:    event.CreatedAt,
		Body:         body,
	})
	if err != nil {
		logger.Error("RabbitMQ publish failed", "routing_key", routingKey(event), "error", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

// Noop returns a sink that only logs events.
func Noop(reason string) service.NotificationSink {
	return noopPublisher{reason: reason}
}

func (noopPublisher) Publish(ctx context.Context, event service.NotificationCreated) error {
	logger.Debug("Noop publish",
		"routing_key", routingKey(event),
		"notification_id", event.NotificationID,
		"user_id", event.UserID)
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherNoopReason explains why p does not publish, or "" for a live
// publisher.
func PublisherNoopReason(p service.NotificationSink) string {
	if publisher, ok := p.(noopPublisher); ok {
		return publisher.reason
	}
	return ""
}
