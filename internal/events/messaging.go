package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const OrderCreatedQueue = "order.created"

// Dial connects to RabbitMQ with the default configuration.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}
