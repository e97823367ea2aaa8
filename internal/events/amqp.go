package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wonny/dlmm-orders/pkg/logger"
)

// AMQPPublisher forwards events to a topic exchange, routed by event type
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *logger.Logger
	timeout  time.Duration
}

// DialAMQP connects and declares the exchange
func DialAMQP(url, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   log.WithComponent("events.amqp"),
		timeout:  5 * time.Second,
	}, nil
}

// Publish sends the event as JSON; failures are logged
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Body:         body,
	})
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"type":  event.Type,
			"order": event.OrderID,
		}).WithError(err).Warn("Failed to publish event")
	}
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	p.channel.Close()
	return p.conn.Close()
}
