// Package notification formats and delivers order SMS. Delivery is
// best-effort: every outcome is reported as a Result, never an error.
package notification

import (
	"context"
	"time"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
	"wheres-my-food/pkg/models"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindNewOrderAlert     Kind = "new_order_alert"
	KindStatusChange      Kind = "status_change"
)

// Job is one message to one recipient. OldStatus and NewStatus are set for
// KindStatusChange only.
type Job struct {
	Kind      Kind
	To        string
	Body      string
	OrderID   string
	OldStatus models.Status
	NewStatus models.Status
}

type Result struct {
	Success    bool   `json:"success"`
	ProviderID string `json:"provider_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Channel sends a message to an already formatted E.164 number.
type Channel interface {
	Send(ctx context.Context, to, body string) Result
}

// Disabled is used when no provider credentials are configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) Result {
	return Result{Reason: "SMS service not configured"}
}

type Dispatcher struct {
	channel     Channel
	countryCode string
	timeout     time.Duration
	mylog       *logger.Logger
}

func NewDispatcher(channel Channel, countryCode string, timeout time.Duration, mylog *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		channel:     channel,
		countryCode: countryCode,
		timeout:     timeout,
		mylog:       mylog,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, job Job) Result {
	mylog := d.mylog.Action("notification_sent").With("kind", job.Kind, "order_id", job.OrderID)

	res := d.deliver(ctx, job)
	if res.Success {
		metrics.Notifications.WithLabelValues(string(job.Kind), "sent").Inc()
		mylog.Info("Notification sent", "provider_id", res.ProviderID)
	} else {
		metrics.Notifications.WithLabelValues(string(job.Kind), "failed").Inc()
		mylog.Action("notification_failed").Warn("Notification not sent", "reason", res.Reason)
	}
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) Result {
	if job.To == "" {
		return Result{Reason: "recipient phone not found"}
	}
	if job.Body == "" {
		return Result{Reason: "missing message body"}
	}
	to, ok := FormatPhone(job.To, d.countryCode)
	if !ok {
		return Result{Reason: "invalid phone number"}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() { done <- d.channel.Send(ctx, to, job.Body) }()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{Reason: "send timed out: " + ctx.Err().Error()}
	}
}
