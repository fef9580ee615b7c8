package notificationsubscriber

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"wheres-my-food/internal/notificationsubscriber/notifier"
	"wheres-my-food/internal/notificationsubscriber/subscriber"
	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/rabbitmq"
)

// Execute prints every status update fanned out on the notifications
// exchange until a shutdown signal arrives.
func Execute(ctx context.Context, args []string) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("notification-subscriber", flag.ContinueOnError)
	configPath := fs.String("config-path", "", "path for config yaml")
	if err := fs.Parse(args); err != nil {
		return errors.New("cannot parse arguments")
	}

	mylog := logger.NewLogger("notification-subscriber", logger.Options{})
	cfg, err := config.Load(*configPath)
	if err != nil {
		mylog.Action("config_load_failed").Error("Failed to load configuration", err)
		return err
	}
	mylog = logger.NewLogger("notification-subscriber", logger.Options{Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	mylog.Action("service_started").Info("Notification Subscriber starting")

	rmq, err := rabbitmq.ConnectRabbitMQ(cfg.RabbitMQ, mylog)
	if err != nil {
		mylog.Action("rabbitmq_connect_failed").Error("Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	messages, err := rmq.BindExclusiveQueue(rabbitmq.NotificationsExchange, "")
	if err != nil {
		mylog.Action("subscribe_start_failed").Error("Failed to start subscriber", err)
		return err
	}

	sub := subscriber.NewNotificationSubscriber(notifier.NewNotifier(os.Stdout, mylog), mylog)
	if err := sub.Run(newCtx, messages); err != nil {
		mylog.Action("subscriber_failed").Error("Subscriber stopped unexpectedly", err)
		return err
	}
	mylog.Action("service_stopped").Info("Subscriber exiting")
	return nil
}
