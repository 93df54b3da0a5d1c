package messaging

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"

	"limitbook/internal/book"
)

// Publisher publishes book events (trade.executed plus the order.*
// lifecycle keys) to a RabbitMQ topic exchange. The matching engine is
// purely computational; downstream consumers (notifications, analytics,
// tape writers) hang off this stream instead of touching the book.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// Routing keys for published events.
const (
	RouteTradeExecuted  = "trade.executed"
	RouteOrderAccepted  = "order.accepted"
	RouteOrderModified  = "order.modified"
	RouteOrderCancelled = "order.cancelled"
)

// TradeEvent is the payload published for trade.executed.
type TradeEvent struct {
	Instrument string     `json:"instrument"`
	Trade      book.Trade `json:"trade"`
}

// OrderEvent is the payload published for order lifecycle routing keys.
type OrderEvent struct {
	Instrument string `json:"instrument"`
	OrderID    int64  `json:"order_id"`
	Status     string `json:"status"`
}

// NewPublisher initializes a RabbitMQ publisher with the given exchange.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// Topic exchange so consumers can bind patterns like trade.* or order.*
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// Publish sends an event message to RabbitMQ with the given routing key.
func (p *Publisher) Publish(routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("Event publish failed: %s: %v", routingKey, err)
		return err
	}

	return nil
}

// Close shuts down RabbitMQ resources gracefully.
func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
