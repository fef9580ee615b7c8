package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"wheres-my-food/internal/notification"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
	"wheres-my-food/pkg/models"
)

// UpdateOrderStatus writes a new status for an order the caller manages.
// Any recognized status is accepted from any prior one unless transitions
// are enforced.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, p models.Principal, orderID, rawStatus, notes string) (models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.new_status", rawStatus))
	mylog := logger.FromCtx(ctx, s.mylog).Action("update_order_status")

	order, old, err := s.updateOrderStatus(ctx, p, orderID, rawStatus, notes, mylog)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Order{}, err
	}
	span.SetStatus(codes.Ok, "status updated")

	metrics.StatusUpdates.WithLabelValues(string(order.Status)).Inc()
	mylog.Info("Order status updated", "order_number", order.OrderNumber, "old_status", old, "new_status", order.Status)
	return order, nil
}

func (s *OrderService) updateOrderStatus(ctx context.Context, p models.Principal, orderID, rawStatus, notes string, mylog *logger.Logger) (models.Order, models.Status, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return models.Order{}, "", err
	}

	order, err := s.authorizedOrder(ctx, p, orderID, AccessManage)
	if err != nil {
		return models.Order{}, "", err
	}

	old := order.Status
	if s.opts.EnforceTransitions && !models.CanTransition(old, status) {
		return models.Order{}, "", fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, old, status)
	}

	now := s.clock.Now()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, status, now); err != nil {
		mylog.Action("status_update_failed").Error("Failed to save order status", err, "order_number", order.OrderNumber)
		return models.Order{}, "", persistenceErr("update order status", err)
	}
	order.Status = status
	order.UpdatedAt = now

	if notes == "" {
		notes = fmt.Sprintf("Order status updated to %s", status)
	}
	if _, err := s.tracking.Append(ctx, order.ID, status, notes); err != nil {
		mylog.Action("tracking_append_failed").Error("Failed to record tracking entry", err, "order_number", order.OrderNumber)
	}

	s.afterStatusChange(order, old, p, notes, mylog)
	return order, old, nil
}

func (s *OrderService) afterStatusChange(order models.Order, old models.Status, p models.Principal, notes string, mylog *logger.Logger) {
	s.runner.Submit("notify_status_change", func(ctx context.Context) {
		customer := s.customerContact(ctx, order.CustomerID, mylog)
		s.notifier.Notify(ctx, notification.Job{
			Kind:      notification.KindStatusChange,
			To:        customer.Phone,
			Body:      notification.StatusChange(order, order.Status),
			OrderID:   order.ID,
			OldStatus: old,
			NewStatus: order.Status,
		})
	})

	msg := models.StatusUpdateMessage{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OldStatus:   old,
		NewStatus:   order.Status,
		ChangedBy:   fmt.Sprintf("%s:%s", p.Role, p.ID),
		Notes:       notes,
		Timestamp:   order.UpdatedAt,
	}
	s.runner.Submit("publish_status_changed", func(ctx context.Context) {
		if err := s.events.PublishStatusChanged(ctx, msg); err != nil {
			mylog.Action("message_publishing_failed").Error("Failed to publish status update", err, "order_number", order.OrderNumber)
		}
	})
}
