package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/logger"
)

const (
	OrdersExchange        = "orders_topic"
	NotificationsExchange = "notifications_fanout"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	mylog   *logger.Logger
}

// ConnectRabbitMQ dials the broker and declares the order exchanges.
func ConnectRabbitMQ(cfg config.RabbitMQConfig, mylog *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := &RabbitMQ{Conn: conn, Channel: channel, mylog: mylog}
	if err := r.declareTopology(); err != nil {
		r.Close()
		return nil, err
	}

	mylog.Action("rabbitmq_connected").Info("Connected to RabbitMQ", "host", cfg.Host)
	return r, nil
}

func (r *RabbitMQ) declareTopology() error {
	err := r.Channel.ExchangeDeclare(
		OrdersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare %s: %w", OrdersExchange, err)
	}

	err = r.Channel.ExchangeDeclare(
		NotificationsExchange, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare %s: %w", NotificationsExchange, err)
	}
	return nil
}

// BindExclusiveQueue declares a server-named queue bound to exchange and
// starts consuming it with auto-ack.
func (r *RabbitMQ) BindExclusiveQueue(exchange, routingKey string) (<-chan amqp.Delivery, error) {
	q, err := r.Channel.QueueDeclare(
		"",    // name (let server generate)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := r.Channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := r.Channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

func (r *RabbitMQ) PublishMessage(ctx context.Context, exchange, routingKey string, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.Channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         message,
			Timestamp:    time.Now(),
		})
}

func (r *RabbitMQ) Close() error {
	var err error
	if r.Channel != nil {
		err = r.Channel.Close()
	}
	if r.Conn != nil {
		if cerr := r.Conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
