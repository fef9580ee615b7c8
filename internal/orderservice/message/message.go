// Package message publishes order domain events after they are committed.
package message

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
	"wheres-my-food/pkg/rabbitmq"
)

type Publisher interface {
	PublishOrderCreated(ctx context.Context, msg models.OrderMessage) error
	PublishStatusChanged(ctx context.Context, msg models.StatusUpdateMessage) error
	Close() error
}

// RabbitPublisher routes order.created.<type> on the orders topic exchange
// and fans status changes out to every subscriber.
type RabbitPublisher struct {
	rmq   *rabbitmq.RabbitMQ
	mylog *logger.Logger
}

func NewRabbitPublisher(rmq *rabbitmq.RabbitMQ, mylog *logger.Logger) *RabbitPublisher {
	return &RabbitPublisher{rmq: rmq, mylog: mylog}
}

func (p *RabbitPublisher) PublishOrderCreated(ctx context.Context, msg models.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	routingKey := fmt.Sprintf("order.created.%s", msg.OrderType)
	if err := p.rmq.PublishMessage(ctx, rabbitmq.OrdersExchange, routingKey, body); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.mylog.Action("message_published").Debug("Order message published", "routing_key", routingKey, "order_number", msg.OrderNumber)
	return nil
}

func (p *RabbitPublisher) PublishStatusChanged(ctx context.Context, msg models.StatusUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.rmq.PublishMessage(ctx, rabbitmq.NotificationsExchange, "", body); err != nil {
		return fmt.Errorf("publish status update: %w", err)
	}
	p.mylog.Action("message_published").Debug("Status update published", "order_number", msg.OrderNumber, "new_status", msg.NewStatus)
	return nil
}

func (p *RabbitPublisher) Close() error {
	return p.rmq.Close()
}

// KafkaPublisher writes every event to one topic keyed by order id.
type KafkaPublisher struct {
	writer *kafka.Writer
	mylog  *logger.Logger
}

type kafkaEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func NewKafkaPublisher(writer *kafka.Writer, mylog *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, mylog: mylog}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, msg models.OrderMessage) error {
	return p.write(ctx, msg.OrderID, "order.created", msg)
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, msg models.StatusUpdateMessage) error {
	return p.write(ctx, msg.OrderID, "order.status_changed", msg)
}

func (p *KafkaPublisher) write(ctx context.Context, key, eventType string, payload any) error {
	body, err := json.Marshal(kafkaEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", eventType, err)
	}
	p.mylog.Action("message_published").Debug("Event written to kafka", "type", eventType, "key", key)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishOrderCreated(context.Context, models.OrderMessage) error         { return nil }
func (Noop) PublishStatusChanged(context.Context, models.StatusUpdateMessage) error { return nil }
func (Noop) Close() error                                                           { return nil }

var (
	_ Publisher = (*RabbitPublisher)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = Noop{}
)
