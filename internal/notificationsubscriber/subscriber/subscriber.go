package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"wheres-my-food/internal/notificationsubscriber/notifier"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

var ErrChannelClosed = errors.New("message channel closed")

type NotificationSubscriber struct {
	notifier *notifier.Notifier
	mylog    *logger.Logger
}

func NewNotificationSubscriber(n *notifier.Notifier, mylog *logger.Logger) *NotificationSubscriber {
	return &NotificationSubscriber{notifier: n, mylog: mylog}
}

// Run displays every status update from messages until ctx is done or the
// broker closes the channel.
func (s *NotificationSubscriber) Run(ctx context.Context, messages <-chan amqp.Delivery) error {
	s.mylog.Action("subscriber_started").Info("Notification subscriber started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return ErrChannelClosed
			}
			if err := s.processMessage(msg.Body); err != nil {
				s.mylog.Action("process_failed").Error("Failed to process message", err)
			}
		}
	}
}

func (s *NotificationSubscriber) processMessage(body []byte) error {
	var update models.StatusUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("parse status update: %w", err)
	}
	if update.OrderNumber == "" || update.NewStatus == "" {
		return fmt.Errorf("parse status update: missing order_number or new_status")
	}
	s.notifier.DisplayNotification(update)
	return nil
}
