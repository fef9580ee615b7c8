package subscriber

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"wheres-my-food/internal/notificationsubscriber/notifier"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	got := notifier.Format(models.StatusUpdateMessage{
		OrderNumber: "ORD-1",
		OldStatus:   models.StatusPreparing,
		NewStatus:   models.StatusReady,
		ChangedBy:   "RESTAURANT_OWNER:u1",
		Timestamp:   time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	})
	want := "Notification for order ORD-1: Status changed from 'preparing' to 'ready' by RESTAURANT_OWNER:u1 at 2025-03-14T12:00:00Z"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	sub := NewNotificationSubscriber(notifier.NewNotifier(&out, logger.Nop()), logger.Nop())

	messages := make(chan amqp.Delivery, 3)
	messages <- amqp.Delivery{Body: []byte(`{"order_number":"ORD-1","old_status":"pending","new_status":"accepted","changed_by":"ADMIN:a1","notes":"ok"}`)}
	messages <- amqp.Delivery{Body: []byte(`not json`)}
	messages <- amqp.Delivery{Body: []byte(`{"order_number":"ORD-2"}`)}
	close(messages)

	err := sub.Run(context.Background(), messages)
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the valid update displayed, got %q", out.String())
	}
	if !strings.Contains(lines[0], "ORD-1") || !strings.HasSuffix(lines[0], "Notes: ok") {
		t.Fatalf("unexpected line %q", lines[0])
	}
}

func TestRun_StopsOnContext(t *testing.T) {
	t.Parallel()

	sub := NewNotificationSubscriber(notifier.NewNotifier(&bytes.Buffer{}, logger.Nop()), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sub.Run(ctx, make(chan amqp.Delivery)); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}
