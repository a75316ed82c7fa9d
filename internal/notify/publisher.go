// Package notify publishes transaction notification events to RabbitMQ.
// Delivery to users is owned by a separate notifier; this side only emits.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodbridge/pkg/types"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type EventProducer struct {
	logger   *logrus.Logger
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewEventProducer connects to the broker and declares the notification
// topic exchange.
func NewEventProducer(logger *logrus.Logger, amqpURL, exchange string) (*EventProducer, error) {

	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventProducer{
		logger:   logger,
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

func (p *EventProducer) PublishTransactionEvent(ctx context.Context, ev types.NotificationEvent) error {

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	routingKey := fmt.Sprintf("transaction.%s", ev.Kind)

	return p.channel.PublishWithContext(publishCtx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher is used when the broker is unreachable at startup so the
// ledger keeps working without notifications.
type NopPublisher struct {
	Logger *logrus.Logger
}

func (p *NopPublisher) PublishTransactionEvent(ctx context.Context, ev types.NotificationEvent) error {
	p.Logger.WithFields(logrus.Fields{
		"transaction_id": ev.TransactionID,
		"kind":           ev.Kind,
	}).Warn("notification publish skipped, broker unavailable")
	return nil
}

func (p *NopPublisher) Close() {}
