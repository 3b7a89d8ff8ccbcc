package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/celustore/payserver/internal/domain/model"
)

const (
	exchangeName        = "orders"
	routingKeyConfirmed = "order.confirmed"
	publishTimeout      = 5 * time.Second
)

// orderConfirmedEvent is the message body published after a payment is
// approved. Consumers (fulfillment, e-mail) only need the identifiers
// and totals, not the full gateway state.
type orderConfirmedEvent struct {
	OrderID       int64  `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail"`
	ConfirmedAt   string `json:"confirmedAt"`
}

// AMQPPublisher publishes order-confirmed events to RabbitMQ.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewAMQPPublisher dials the broker and declares the orders exchange.
func NewAMQPPublisher(addr string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, logger: logger}, nil
}

// OrderConfirmed publishes a persistent order.confirmed event.
func (p *AMQPPublisher) OrderConfirmed(ctx context.Context, order *model.Order) error {
	event := orderConfirmedEvent{
		OrderID:       order.ID,
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total.StringFixed(2),
		Currency:      "GTQ",
		CustomerEmail: order.Customer.Email,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, exchangeName, routingKeyConfirmed, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order confirmed: %w", err)
	}

	p.logger.Info("order confirmed event published", slog.Int64("order", order.ID))
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// NopNotifier is used when no broker address is configured.
type NopNotifier struct{}

func (NopNotifier) OrderConfirmed(context.Context, *model.Order) error { return nil }
